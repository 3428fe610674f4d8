package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"payego/internal/adapters/api"
	"payego/internal/core/domain"
	"payego/internal/core/forms"
	"payego/internal/pkg/pagination"
)

func registerWalletCommands(r *CommandRegistry) {
	r.Register(&Command{
		Name:        "wallets",
		Description: "List wallet balances",
		Usage:       "payego wallets",
		Route:       "/wallets",
		Run:         runWallets,
	})
	r.Register(&Command{
		Name:        "transactions",
		Description: "List transactions, newest first",
		Usage:       "payego transactions [--page N] [--limit N]",
		Examples:    []string{"payego transactions --page 2 --limit 10"},
		Route:       "/transactions",
		Run:         runTransactions,
	})
	r.Register(&Command{
		Name:        "transaction",
		Description: "Show one transaction",
		Usage:       "payego transaction <id>",
		Run:         runTransaction,
	})
	r.Register(&Command{
		Name:        "topup",
		Description: "Fund a wallet with Stripe or PayPal",
		Usage:       "payego topup --amount <amount> --currency <code> [--provider stripe|paypal] [--yes]",
		Examples:    []string{"payego topup --amount 50 --currency USD"},
		Route:       "/top-up",
		Run:         runTopUp,
	})
	r.Register(&Command{
		Name:        "capture-paypal",
		Description: "Complete an approved PayPal order",
		Usage:       "payego capture-paypal <order-id>",
		Route:       "/paypal/success",
		Run:         runCapturePayPal,
	})
	r.Register(&Command{
		Name:        "transfer",
		Description: "Send money to a Payego user or a bank account",
		Usage:       "payego transfer (--to <email|username> | --bank <code> --account <number>) --amount <amount> --currency <code> [--description <text>] [--yes]",
		Examples: []string{
			"payego transfer --to grace --amount 10 --currency USD",
			"payego transfer --bank 058 --account 0123456789 --amount 5000 --currency NGN",
		},
		Route: "/transfer",
		Run:   runTransfer,
	})
	r.Register(&Command{
		Name:        "withdraw",
		Description: "Withdraw to a saved bank account",
		Usage:       "payego withdraw --account <bank-account-id> --amount <amount> --currency <code> [--yes]",
		Route:       "/withdraw",
		Run:         runWithdraw,
	})
	r.Register(&Command{
		Name:        "convert",
		Description: "Convert between two of your wallets",
		Usage:       "payego convert --amount <amount> --from <code> --to <code> [--yes]",
		Examples:    []string{"payego convert --amount 100 --from USD --to EUR"},
		Route:       "/convert",
		Run:         runConvert,
	})
	r.Register(&Command{
		Name:        "rate",
		Description: "Show an exchange rate",
		Usage:       "payego rate <from> <to>",
		Route:       "/convert",
		Run:         runRate,
	})
}

// runFlow drives a form through edit, preview, confirmation and submit.
func runFlow[In, P any](e *Env, f *forms.Flow[In, P], in In, yes bool, show func(P)) (forms.Outcome, error) {
	if err := f.Edit(in); err != nil {
		return forms.Outcome{}, err
	}
	p, err := f.Preview(e.Ctx)
	if err != nil {
		return forms.Outcome{}, err
	}
	show(p)
	if err := e.Confirm(yes, "Proceed?"); err != nil {
		return forms.Outcome{}, err
	}
	return f.Confirm(e.Ctx)
}

func printOutcome(e *Env, out forms.Outcome) {
	if out.Message != "" {
		e.Printf("%s\n", out.Message)
	}
	if out.TransactionID != "" {
		e.Printf("Transaction: %s\n", out.TransactionID)
	}
	keys := make([]string, 0, len(out.Detail))
	for k := range out.Detail {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e.Printf("%s: %s\n", k, out.Detail[k])
	}
}

func runWallets(e *Env, _ []string) error {
	wallets, err := e.App.LoadWallets(e.Ctx)
	if err != nil {
		return err
	}

	t := NewTableWriter("CURRENCY", "BALANCE")
	for _, w := range wallets {
		t.AddRow(w.Currency, domain.FormatMinor(w.Balance, w.Currency))
	}
	t.Print(e.Out)
	return nil
}

func runTransactions(e *Env, args []string) error {
	fs := e.Flags()
	page := fs.Int("page", 1, "Page number")
	limit := fs.Int("limit", pagination.DefaultLimit, "Entries per page")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resp, err := e.App.LoadTransactions(e.Ctx, pagination.New(*page, *limit))
	if err != nil {
		return err
	}
	if len(resp.Transactions) == 0 {
		e.Printf("No transactions yet\n")
		return nil
	}

	t := NewTableWriter("ID", "DATE", "TYPE", "AMOUNT", "STATUS")
	for _, tx := range resp.Transactions {
		t.AddRow(tx.ID, tx.CreatedAt.Format("2006-01-02 15:04"), string(tx.Intent), domain.FormatMinor(tx.Amount, tx.Currency), string(tx.Status))
	}
	t.Print(e.Out)
	if resp.Total > 0 {
		e.Printf("Page %d, %d of %d\n", *page, len(resp.Transactions), resp.Total)
	}
	return nil
}

func runTransaction(e *Env, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: payego transaction <id>")
	}
	if err := e.Open("/transactions/" + args[0]); err != nil {
		return err
	}

	tx, err := e.App.LoadTransaction(e.Ctx, args[0])
	if err != nil {
		return err
	}

	t := NewTableWriter("FIELD", "VALUE")
	t.AddRow("id", tx.ID)
	t.AddRow("type", string(tx.Intent))
	t.AddRow("amount", domain.FormatMinor(tx.Amount, tx.Currency))
	t.AddRow("status", string(tx.Status))
	t.AddRow("reference", tx.Reference)
	t.AddRow("created", tx.CreatedAt.Format("2006-01-02 15:04:05"))
	keys := make([]string, 0, len(tx.Metadata))
	for k := range tx.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.AddRow(k, fmt.Sprint(tx.Metadata[k]))
	}
	t.Print(e.Out)
	return nil
}

func runTopUp(e *Env, args []string) error {
	fs := e.Flags()
	amount := fs.String("amount", "", "Amount in major units")
	currency := fs.String("currency", "", "Wallet currency")
	provider := fs.String("provider", string(api.ProviderStripe), "stripe or paypal")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}

	in := forms.TopUpInput{Amount: *amount, Currency: *currency, Provider: api.Provider(*provider)}
	out, err := runFlow(e, forms.NewTopUp(e.App.Deps()), in, *yes, func(p forms.TopUpPreview) {
		e.Printf("Top up %s via %s\n", domain.FormatMinor(p.Minor, p.Currency), p.Provider)
	})
	if err != nil {
		return err
	}
	printOutcome(e, out)
	return nil
}

func runCapturePayPal(e *Env, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: payego capture-paypal <order-id>")
	}
	out, err := forms.CapturePayPal(e.Ctx, e.App.Deps(), args[0])
	if err != nil {
		return err
	}
	printOutcome(e, out)
	return nil
}

func runTransfer(e *Env, args []string) error {
	fs := e.Flags()
	to := fs.String("to", "", "Recipient e-mail or username")
	bank := fs.String("bank", "", "Bank code for an external transfer")
	account := fs.String("account", "", "Account number for an external transfer")
	amount := fs.String("amount", "", "Amount in major units")
	currency := fs.String("currency", "", "Wallet currency")
	description := fs.String("description", "", "Optional note")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		out forms.Outcome
		err error
	)
	switch {
	case *to != "" && (*bank != "" || *account != ""):
		return fmt.Errorf("use either --to or --bank/--account, not both")
	case *to != "":
		in := forms.InternalTransferInput{Recipient: *to, Amount: *amount, Currency: *currency, Description: *description}
		out, err = runFlow(e, forms.NewInternalTransfer(e.App.Deps()), in, *yes, func(p forms.InternalTransferPreview) {
			e.Printf("Send %s %s to %s (%s)\n", p.Amount.StringFixed(2), p.Currency, p.Recipient.Username, p.Recipient.Email)
		})
	default:
		in := forms.ExternalTransferInput{BankCode: *bank, AccountNumber: *account, Amount: *amount, Currency: *currency, Description: *description}
		out, err = runFlow(e, forms.NewExternalTransfer(e.App.Deps()), in, *yes, func(p forms.ExternalTransferPreview) {
			e.Printf("Send %s %s to %s, %s (bank %s)\n", p.Amount.StringFixed(2), p.Currency, p.AccountName, p.AccountNumber, p.BankCode)
		})
	}
	if err != nil {
		return err
	}
	printOutcome(e, out)
	return nil
}

func runWithdraw(e *Env, args []string) error {
	fs := e.Flags()
	account := fs.String("account", "", "Saved bank account id (see 'payego banks')")
	amount := fs.String("amount", "", "Amount in major units")
	currency := fs.String("currency", "", "Wallet currency")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}

	w := forms.NewWithdraw(e.App.Deps())
	if !w.CanSubmit() {
		return errors.New(forms.MsgVerifyEmail)
	}

	in := forms.WithdrawInput{BankAccountID: *account, Amount: *amount, Currency: *currency}
	out, err := runFlow(e, w.Flow, in, *yes, func(p forms.WithdrawPreview) {
		e.Printf("Withdraw %s %s to %s %s (%s)\n", p.Amount.StringFixed(2), p.Currency,
			p.BankAccount.BankName, p.BankAccount.AccountNumber, p.BankAccount.AccountHolderName)
		if p.Rate != nil {
			e.Printf("Rate %s/%s %s, account receives %s\n", p.Rate.From, p.Rate.To,
				strconv.FormatFloat(p.Rate.Rate, 'f', -1, 64), domain.FormatMinor(p.Received, p.BankAccount.Currency))
		}
	})
	if err != nil {
		return err
	}
	printOutcome(e, out)
	return nil
}

func runConvert(e *Env, args []string) error {
	fs := e.Flags()
	amount := fs.String("amount", "", "Amount in major units of the source currency")
	from := fs.String("from", "", "Source currency")
	to := fs.String("to", "", "Target currency")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}

	in := forms.ConvertInput{Amount: *amount, FromCurrency: *from, ToCurrency: *to}
	out, err := runFlow(e, forms.NewConvert(e.App.Deps()), in, *yes, func(p forms.ConvertPreview) {
		e.Printf("Convert %s %s at %s, receive about %s\n", p.Amount.StringFixed(2), p.FromCurrency,
			strconv.FormatFloat(p.Rate.Rate, 'f', -1, 64), domain.FormatMinor(p.Converted, p.ToCurrency))
	})
	if err != nil {
		return err
	}
	printOutcome(e, out)
	return nil
}

func runRate(e *Env, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: payego rate <from> <to>")
	}
	rate, err := e.App.API.ExchangeRate(e.Ctx, args[0], args[1])
	if err != nil {
		return err
	}
	e.Printf("1 %s = %s %s\n", rate.From, strconv.FormatFloat(rate.Rate, 'f', -1, 64), rate.To)
	return nil
}
