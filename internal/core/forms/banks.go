package forms

import (
	"context"
	"strings"

	"payego/internal/adapters/api"
	"payego/internal/core/domain"
	"payego/internal/core/query"
)

const banksView = "/banks"

type AddBankInput struct {
	BankCode      string
	AccountNumber string
	Currency      string
}

type AddBankPreview struct {
	Bank        domain.Bank
	AccountName string
	Currency    string
}

// NewAddBank builds the add-bank-account form. The preview resolves the
// account holder's name and the bank's display name.
func NewAddBank(d Deps) *Flow[AddBankInput, AddBankPreview] {
	validate := func(in AddBankInput) FieldErrors {
		fe := FieldErrors{}
		if in.BankCode == "" {
			fe.Add(FieldBankCode, "Please select a bank")
		}
		if !ValidAccountNumber(in.AccountNumber) {
			fe.Add(FieldAccountNumber, "Account number must be exactly 10 digits")
		}
		if cur := normalizeCurrency(in.Currency); cur != "" {
			currencyIn(fe, FieldCurrency, cur, d.Limits)
		}
		return fe
	}

	return NewFlow(Steps[AddBankInput, AddBankPreview]{
		Validate: validate,
		Preview: func(ctx context.Context, in AddBankInput) (AddBankPreview, error) {
			banks, err := d.API.Banks(ctx)
			if err != nil {
				return AddBankPreview{}, err
			}
			bank := domain.Bank{Code: in.BankCode}
			found := false
			for _, b := range banks {
				if b.Code == in.BankCode {
					bank, found = b, true
					break
				}
			}
			if !found {
				return AddBankPreview{}, FieldErrors{FieldBankCode: "Unknown bank"}
			}

			name, err := d.API.ResolveAccount(ctx, in.AccountNumber, in.BankCode)
			if err != nil {
				return AddBankPreview{}, err
			}
			cur := normalizeCurrency(in.Currency)
			if cur == "" {
				cur = domain.LocalCurrency
			}
			return AddBankPreview{Bank: bank, AccountName: name, Currency: cur}, nil
		},
		Submit: func(ctx context.Context, in AddBankInput, p AddBankPreview, key string) (Outcome, error) {
			acct, err := d.API.AddBank(ctx, api.AddBankRequest{
				BankCode:      p.Bank.Code,
				BankName:      p.Bank.Name,
				AccountNumber: in.AccountNumber,
				AccountName:   p.AccountName,
				Currency:      p.Currency,
			})
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{Detail: map[string]string{"bank_account_id": acct.ID}}, nil
		},
		Invalidate:  []string{query.KeyUserBanks},
		Destination: func(Outcome) string { return banksView },
	}, d.Cache, d.Nav, d.newKey())
}

// DeletePreview is the account about to be removed.
type DeletePreview struct {
	BankAccount domain.BankAccount
}

// NewDeleteBank builds the delete confirmation. Input is the account id.
func NewDeleteBank(d Deps) *Flow[string, DeletePreview] {
	return NewFlow(Steps[string, DeletePreview]{
		Validate: func(id string) FieldErrors {
			if strings.TrimSpace(id) == "" {
				return FieldErrors{FieldBankAccount: "Please select a bank account"}
			}
			return nil
		},
		Preview: func(ctx context.Context, id string) (DeletePreview, error) {
			accounts, err := d.API.UserBanks(ctx)
			if err != nil {
				return DeletePreview{}, err
			}
			for _, a := range accounts {
				if a.ID == id {
					return DeletePreview{BankAccount: a}, nil
				}
			}
			return DeletePreview{}, FieldErrors{FieldBankAccount: "Bank account not found"}
		},
		Submit: func(ctx context.Context, id string, p DeletePreview, key string) (Outcome, error) {
			if err := d.API.DeleteBank(ctx, p.BankAccount.ID); err != nil {
				return Outcome{}, err
			}
			return Outcome{Message: "Bank account removed"}, nil
		},
		Invalidate:  []string{query.KeyUserBanks},
		Destination: func(Outcome) string { return banksView },
	}, d.Cache, d.Nav, d.newKey())
}

// CapturePayPal completes an approved PayPal order and opens the resulting
// transaction.
func CapturePayPal(ctx context.Context, d Deps, orderID string) (Outcome, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Outcome{}, FieldErrors{FieldToken: "PayPal order id is required"}
	}

	resp, err := d.API.CapturePayPal(ctx, api.CapturePayPalRequest{OrderID: orderID})
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{TransactionID: resp.TransactionID, Detail: map[string]string{"status": string(resp.Status)}}
	if d.Cache != nil {
		// The captured transaction was cached while it was still pending
		d.Cache.Invalidate(append([]string{query.TransactionKey(resp.TransactionID)}, moneyKeys...)...)
	}
	if d.Nav != nil {
		d.Nav.Navigate(transactionView(out))
	}
	return out, nil
}
