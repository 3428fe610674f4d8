package main

import (
	"fmt"

	"payego/internal/core/forms"
)

func registerBankCommands(r *CommandRegistry) {
	r.Register(&Command{
		Name:        "banks",
		Description: "List your saved bank accounts",
		Usage:       "payego banks",
		Route:       "/banks",
		Run:         runBanks,
	})
	r.Register(&Command{
		Name:        "bank-list",
		Description: "List the banks you can add accounts for",
		Usage:       "payego bank-list",
		Route:       "/banks",
		Run:         runBankList,
	})
	r.Register(&Command{
		Name:        "bank-add",
		Description: "Save a bank account for withdrawals",
		Usage:       "payego bank-add --bank <code> --account <number> [--currency <code>] [--yes]",
		Examples:    []string{"payego bank-add --bank 058 --account 0123456789"},
		Route:       "/banks",
		Run:         runBankAdd,
	})
	r.Register(&Command{
		Name:        "bank-delete",
		Description: "Remove a saved bank account",
		Usage:       "payego bank-delete [--yes] <bank-account-id>",
		Route:       "/banks",
		Run:         runBankDelete,
	})
}

func runBanks(e *Env, _ []string) error {
	accounts, err := e.App.LoadUserBanks(e.Ctx)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		e.Printf("No bank accounts saved\n")
		return nil
	}

	t := NewTableWriter("ID", "BANK", "ACCOUNT", "NAME", "CURRENCY")
	for _, a := range accounts {
		t.AddRow(a.ID, a.BankName, a.AccountNumber, a.AccountHolderName, a.Currency)
	}
	t.Print(e.Out)
	return nil
}

func runBankList(e *Env, _ []string) error {
	banks, err := e.App.LoadBanks(e.Ctx)
	if err != nil {
		return err
	}

	t := NewTableWriter("CODE", "NAME")
	for _, b := range banks {
		t.AddRow(b.Code, b.Name)
	}
	t.Print(e.Out)
	return nil
}

// lookupAccount resolves the holder's name the way the form does while typing.
func lookupAccount(e *Env, bankCode, accountNumber string) (string, error) {
	if bankCode == "" || !forms.ValidAccountNumber(accountNumber) {
		return "", nil
	}

	results := make(chan forms.LookupResult, 1)
	lookup := forms.NewAccountLookup(e.App.API, e.App.Config.Client.Debounce, func(r forms.LookupResult) {
		results <- r
	})
	defer lookup.Stop()

	lookup.Type(bankCode, accountNumber)
	select {
	case r := <-results:
		return r.AccountName, r.Err
	case <-e.Ctx.Done():
		return "", e.Ctx.Err()
	}
}

func runBankAdd(e *Env, args []string) error {
	fs := e.Flags()
	bank := fs.String("bank", "", "Bank code (see 'payego bank-list')")
	account := fs.String("account", "", "10-digit account number")
	currency := fs.String("currency", "", "Account currency (defaults to NGN)")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}

	name, err := lookupAccount(e, *bank, *account)
	if err != nil {
		return err
	}
	if name != "" {
		e.Printf("Account holder: %s\n", name)
	}

	in := forms.AddBankInput{BankCode: *bank, AccountNumber: *account, Currency: *currency}
	out, err := runFlow(e, forms.NewAddBank(e.App.Deps()), in, *yes, func(p forms.AddBankPreview) {
		e.Printf("Save %s %s (%s) in %s\n", p.Bank.Name, *account, p.AccountName, p.Currency)
	})
	if err != nil {
		return err
	}
	e.Printf("Bank account saved: %s\n", out.Detail["bank_account_id"])
	return nil
}

func runBankDelete(e *Env, args []string) error {
	fs := e.Flags()
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: payego bank-delete [--yes] <bank-account-id>")
	}

	_, err := runFlow(e, forms.NewDeleteBank(e.App.Deps()), fs.Arg(0), *yes, func(p forms.DeletePreview) {
		e.Printf("Delete %s %s (%s)\n", p.BankAccount.BankName, p.BankAccount.AccountNumber, p.BankAccount.AccountHolderName)
	})
	if err != nil {
		return err
	}
	e.Printf("Bank account deleted\n")
	return nil
}
