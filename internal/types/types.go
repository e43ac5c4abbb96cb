// README: Common value objects shared across modules.
package types

import "fmt"

type ID string

// Money is an integer amount in the smallest currency unit (cents).
type Money struct {
	Amount   int64
	Currency string
}

func EUR(cents int64) Money {
	return Money{Amount: cents, Currency: "EUR"}
}

func (m Money) String() string {
	return fmt.Sprintf("%d.%02d %s", m.Amount/100, m.Amount%100, m.Currency)
}
