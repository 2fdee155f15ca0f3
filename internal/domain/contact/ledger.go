package contact

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/lifesync-ledger/internal/domain/money"
)

// SettlementNote is recorded on the closing transaction appended by Settle
const SettlementNote = "Full settlement"

// MaxNoteLength is the longest note a transaction may carry, in characters
const MaxNoteLength = 500

// effect is what a (direction, kind) pair does to the net balance and how it reads to the owner.
// Balance arithmetic and summary wording both come from this table so they cannot drift apart.
type effect struct {
	sign int64
	verb string
}

func effectOf(d Direction, k Kind) (effect, bool) {
	switch {
	case d == DirectionBorrowed && k == KindCredit:
		return effect{sign: +1, verb: "YOU BORROWED"}, true
	case d == DirectionBorrowed && k == KindReturn:
		return effect{sign: -1, verb: "YOU RETURNED"}, true
	case d == DirectionLent && k == KindCredit:
		return effect{sign: -1, verb: "YOU LENT"}, true
	case d == DirectionLent && k == KindReturn:
		return effect{sign: +1, verb: "YOU RECEIVED"}, true
	}
	return effect{}, false
}

// Delta is the signed change this transaction makes to the net balance, in minor units.
// Positive net means the owner owes the counterparty.
func (t Transaction) Delta() int64 {
	e, ok := effectOf(t.Direction, t.Kind)
	if !ok {
		return 0
	}
	return e.sign * int64(t.Amount)
}

// Verb is the owner-facing description of the transaction, e.g. "YOU LENT"
func (t Transaction) Verb() string {
	e, ok := effectOf(t.Direction, t.Kind)
	if !ok {
		return strings.ToUpper(string(t.Direction) + " " + string(t.Kind))
	}
	return e.verb
}

// Balance is the state derived from a transaction list
type Balance struct {
	Net     int64        // signed, minor units
	Current money.Amount // |Net|
	Type    BalanceType
	Settled bool
}

// netOf sums the deltas of a ledger. ok is false when a partial sum leaves the int64 range.
func netOf(transactions []Transaction) (net int64, ok bool) {
	for _, t := range transactions {
		d := t.Delta()
		if (d > 0 && net > math.MaxInt64-d) || (d < 0 && net < math.MinInt64-d) {
			return 0, false
		}
		net += d
	}
	return net, true
}

// checkBalance rejects a ledger whose outstanding balance would exceed money.Max in either direction
func checkBalance(field string, transactions []Transaction) []FieldViolation {
	net, ok := netOf(transactions)
	if !ok || net > int64(money.Max) || net < -int64(money.Max) {
		return []FieldViolation{{Field: field, Message: "outstanding balance would exceed " + money.Max.String()}}
	}
	return nil
}

// Recompute reduces a transaction list to its balance. It has no side effects.
// Ledgers built through this package stay within ±money.Max, so the sum cannot wrap.
func Recompute(transactions []Transaction) Balance {
	net, _ := netOf(transactions)

	b := Balance{Net: net}
	switch {
	case net > 0:
		b.Current = money.Amount(net)
		b.Type = BalanceOwe
	case net < 0:
		b.Current = money.Amount(-net)
		b.Type = BalanceOwed
	default:
		b.Type = BalanceSettled
		b.Settled = true
	}
	return b
}

// Recompute refreshes the derived balance fields from the transaction list
func (c *Contact) Recompute() Balance {
	b := Recompute(c.Transactions)
	c.CurrentBalance = b.Current
	c.BalanceType = b.Type
	c.IsSettled = b.Settled
	return b
}

// Chronological returns the transactions sorted by date ascending; equal dates keep insertion order
func (c *Contact) Chronological() []Transaction {
	sorted := make([]Transaction, len(c.Transactions))
	copy(sorted, c.Transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}

// TransactionInput is an unvalidated transaction as received from a caller.
// A nil Amount means the caller did not send one; a nil Date defaults to the current time.
type TransactionInput struct {
	Type      string
	Direction string
	Amount    *decimal.Decimal
	Note      string
	Date      *time.Time
}

// TransactionPatch carries the editable transaction fields; nil means unchanged
type TransactionPatch struct {
	Type      *string
	Direction *string
	Amount    *decimal.Decimal
	Note      *string
	Date      *time.Time
}

func (in TransactionInput) build(prefix string, now time.Time) (Transaction, []FieldViolation) {
	var violations []FieldViolation

	kind, v := parseKind(prefix, in.Type)
	violations = append(violations, v...)
	direction, v := parseDirection(prefix, in.Direction)
	violations = append(violations, v...)

	var amount money.Amount
	if in.Amount == nil {
		violations = append(violations, FieldViolation{Field: prefix + "amount", Message: "amount is required"})
	} else {
		var v []FieldViolation
		amount, v = parseAmount(prefix, *in.Amount)
		violations = append(violations, v...)
	}

	note, v := parseNote(prefix, in.Note)
	violations = append(violations, v...)

	date := now
	if in.Date != nil && !in.Date.IsZero() {
		date = *in.Date
	}

	if len(violations) > 0 {
		return Transaction{}, violations
	}
	return Transaction{
		ID:        NewTransactionID(),
		Date:      date,
		Kind:      kind,
		Direction: direction,
		Amount:    amount,
		Note:      note,
	}, nil
}

// Validate reports every violation of the input, naming fields with the given prefix
func (in TransactionInput) Validate(prefix string) []FieldViolation {
	_, violations := in.build(prefix, time.Time{})
	return violations
}

func parseNote(prefix, s string) (string, []FieldViolation) {
	note := strings.TrimSpace(s)
	if utf8.RuneCountInString(note) > MaxNoteLength {
		return "", []FieldViolation{{Field: prefix + "note", Message: fmt.Sprintf("note must be at most %d characters", MaxNoteLength)}}
	}
	return note, nil
}

func parseKind(prefix, s string) (Kind, []FieldViolation) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", []FieldViolation{{Field: prefix + "type", Message: "type must be 'credit' or 'return'"}}
	}
	return k, nil
}

func parseDirection(prefix, s string) (Direction, []FieldViolation) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", []FieldViolation{{Field: prefix + "direction", Message: "direction must be 'borrowed' or 'lent'"}}
	}
	return d, nil
}

func parseAmount(prefix string, d decimal.Decimal) (money.Amount, []FieldViolation) {
	a, err := money.FromDecimal(d)
	if err != nil {
		return 0, []FieldViolation{{Field: prefix + "amount", Message: err.Error()}}
	}
	return a, nil
}

func transactionField(i int) string {
	return fmt.Sprintf("transactions[%d].", i)
}

// AddTransaction validates and appends a transaction, then recomputes the balance
func (c *Contact) AddTransaction(in TransactionInput, now time.Time) (Transaction, error) {
	txn, violations := in.build("", now)
	if len(violations) > 0 {
		return Transaction{}, NewValidationError(violations...)
	}

	candidate := append(c.Transactions[:len(c.Transactions):len(c.Transactions)], txn)
	if v := checkBalance("amount", candidate); len(v) > 0 {
		return Transaction{}, NewValidationError(v...)
	}

	c.Transactions = candidate
	c.Recompute()
	c.UpdatedAt = now
	return txn, nil
}

// EditTransaction changes a single transaction in place, then recomputes the balance
func (c *Contact) EditTransaction(transactionID string, patch TransactionPatch, now time.Time) (Transaction, error) {
	idx := c.indexOf(transactionID)
	if idx < 0 {
		return Transaction{}, ErrTransactionNotFound{ContactID: c.ID, TransactionID: transactionID}
	}

	txn := c.Transactions[idx]
	var violations []FieldViolation
	if patch.Type != nil {
		k, v := parseKind("", *patch.Type)
		violations = append(violations, v...)
		txn.Kind = k
	}
	if patch.Direction != nil {
		d, v := parseDirection("", *patch.Direction)
		violations = append(violations, v...)
		txn.Direction = d
	}
	if patch.Amount != nil {
		a, v := parseAmount("", *patch.Amount)
		violations = append(violations, v...)
		txn.Amount = a
	}
	if patch.Note != nil {
		n, v := parseNote("", *patch.Note)
		violations = append(violations, v...)
		txn.Note = n
	}
	if len(violations) > 0 {
		return Transaction{}, NewValidationError(violations...)
	}
	if patch.Date != nil && !patch.Date.IsZero() {
		txn.Date = *patch.Date
	}

	candidate := make([]Transaction, len(c.Transactions))
	copy(candidate, c.Transactions)
	candidate[idx] = txn
	if v := checkBalance("amount", candidate); len(v) > 0 {
		return Transaction{}, NewValidationError(v...)
	}

	c.Transactions = candidate
	c.Recompute()
	c.UpdatedAt = now
	return txn, nil
}

// DeleteTransaction removes a single transaction, then recomputes the balance
func (c *Contact) DeleteTransaction(transactionID string, now time.Time) (Transaction, error) {
	idx := c.indexOf(transactionID)
	if idx < 0 {
		return Transaction{}, ErrTransactionNotFound{ContactID: c.ID, TransactionID: transactionID}
	}

	removed := c.Transactions[idx]
	candidate := append(c.Transactions[:idx:idx], c.Transactions[idx+1:]...)
	if v := checkBalance("transactions", candidate); len(v) > 0 {
		return Transaction{}, NewValidationError(v...)
	}

	c.Transactions = candidate
	c.Recompute()
	c.UpdatedAt = now
	return removed, nil
}

// Settle appends the single return transaction that brings the net balance to zero.
// It fails with ErrAlreadySettled when nothing is outstanding.
func (c *Contact) Settle(now time.Time) (Transaction, error) {
	if v := checkBalance("transactions", c.Transactions); len(v) > 0 {
		return Transaction{}, NewValidationError(v...)
	}
	b := Recompute(c.Transactions)
	if b.Settled {
		return Transaction{}, ErrAlreadySettled{ContactID: c.ID}
	}

	direction := DirectionLent
	if b.Type == BalanceOwe {
		direction = DirectionBorrowed
	}
	txn := Transaction{
		ID:        NewTransactionID(),
		Date:      now,
		Kind:      KindReturn,
		Direction: direction,
		Amount:    b.Current,
		Note:      SettlementNote,
	}

	c.Transactions = append(c.Transactions, txn)
	if after := c.Recompute(); !after.Settled {
		// Unreachable while effectOf and Settle agree; refuse to hand back an unsettled ledger.
		c.Transactions = c.Transactions[:len(c.Transactions)-1]
		c.Recompute()
		return Transaction{}, fmt.Errorf("settlement left contact %s with net balance %d", c.ID, after.Net)
	}
	c.UpdatedAt = now
	return txn, nil
}

func (c *Contact) indexOf(transactionID string) int {
	for i, t := range c.Transactions {
		if t.ID == transactionID {
			return i
		}
	}
	return -1
}
