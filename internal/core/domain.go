package core

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	Entrada TransactionType = "ENTRADA"
	Saida   TransactionType = "SAIDA"
)

const (
	StatusAguardando Status = "AGUARDANDO"
	StatusPago       Status = "PAGO"
	StatusPendente   Status = "PENDENTE"
	StatusAtrasado   Status = "ATRASADO"
)

const (
	PayerAlex  Payer = "Alex"
	PayerAndre Payer = "André"
	PayerBruno Payer = "Bruno"
	PayerKarol Payer = "Karol"
)

// DefaultCategory labels transactions saved without a category.
const DefaultCategory = "Geral"

type (
	TransactionType string
	Status          string
	Payer           string

	// Transaction is a receivable (ENTRADA) or payable (SAIDA) record.
	// Date is the due date for payables and the entry date for receivables.
	Transaction struct {
		ID          string          `json:"id,omitempty"`
		Date        Day             `json:"date"`
		Description string          `json:"description"`
		Entity      string          `json:"entity"`
		Amount      Money           `json:"amount"`
		Status      Status          `json:"status"`
		Type        TransactionType `json:"type"`
		Category    string          `json:"category"`
		PaymentDate Day             `json:"paymentDate,omitempty"`
		Payer       Payer           `json:"payer,omitempty"`

		// Not persisted; derived on each creation batch and recovered from
		// the description suffix after a reload.
		InstallmentCurrent int `json:"installmentCurrent,omitempty"`
		InstallmentTotal   int `json:"installmentTotal,omitempty"`
	}
)

var (
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrStatusNotAllowed   = errors.New("status not allowed for transaction type")
	ErrInvalidPayer       = errors.New("invalid payer")
	ErrPayerNotAllowed    = errors.New("payer is only allowed on payables")
	ErrPaymentNotAllowed  = errors.New("payment date is only allowed on payables")
	ErrNegativeAmount     = errors.New("amount cannot be negative")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrPaymentMismatch    = errors.New("payable must be PAGO exactly when it has a payment date")
)

func (t TransactionType) IsValid() bool {
	return t == Entrada || t == Saida
}

func (s Status) IsValid() bool {
	switch s {
	case StatusAguardando, StatusPago, StatusPendente, StatusAtrasado:
		return true
	}
	return false
}

// AllowedFor reports whether the status belongs to the vocabulary of t.
func (s Status) AllowedFor(t TransactionType) bool {
	switch t {
	case Entrada:
		return s == StatusAguardando || s == StatusPago || s == StatusAtrasado
	case Saida:
		return s == StatusPendente || s == StatusPago || s == StatusAtrasado
	}
	return false
}

// Payers lists the fixed set of people responsible for payables.
func Payers() []Payer {
	return []Payer{PayerAlex, PayerAndre, PayerBruno, PayerKarol}
}

func (p Payer) IsValid() bool {
	for _, v := range Payers() {
		if p == v {
			return true
		}
	}
	return false
}

// CategoryOrDefault returns the aggregation label of the transaction.
func (t Transaction) CategoryOrDefault() string {
	if c := strings.TrimSpace(t.Category); c != "" {
		return c
	}
	return DefaultCategory
}

// IsPaid reports whether a payment date was recorded.
func (t Transaction) IsPaid() bool {
	return !t.PaymentDate.IsEmpty()
}

func (t Transaction) Validate() error {
	if !t.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, t.Type)
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	if !t.Status.AllowedFor(t.Type) {
		return fmt.Errorf("%w: %s on %s", ErrStatusNotAllowed, t.Status, t.Type)
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if t.Amount.Cents < 0 {
		return ErrNegativeAmount
	}
	if t.Type == Entrada {
		if t.Payer != "" {
			return ErrPayerNotAllowed
		}
		if !t.PaymentDate.IsEmpty() {
			return ErrPaymentNotAllowed
		}
		return nil
	}
	if t.Payer != "" && !t.Payer.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPayer, t.Payer)
	}
	if !t.PaymentDate.IsEmpty() {
		if err := t.PaymentDate.Validate(); err != nil {
			return fmt.Errorf("payment date: %w", err)
		}
	}
	if t.PaymentDate.IsEmpty() == (t.Status == StatusPago) {
		return fmt.Errorf("%w: status %s, payment date %q", ErrPaymentMismatch, t.Status, t.PaymentDate)
	}
	return nil
}

var installmentSuffix = regexp.MustCompile(`\((\d+)/(\d+)\)\s*$`)

// InstallmentLabel suffixes desc with the position of a part in its series.
func InstallmentLabel(desc string, current, total int) string {
	return fmt.Sprintf("%s (%d/%d)", strings.TrimSpace(desc), current, total)
}

// ParseInstallmentLabel extracts the "(i/N)" suffix written by InstallmentLabel.
func ParseInstallmentLabel(desc string) (current, total int, ok bool) {
	m := installmentSuffix.FindStringSubmatch(desc)
	if m == nil {
		return 0, 0, false
	}
	current, err1 := strconv.Atoi(m[1])
	total, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil || total < 2 || current < 1 || current > total {
		return 0, 0, false
	}
	return current, total, true
}

// WithInstallmentInfo fills the installment position from the description
// when the store did not carry it.
func (t Transaction) WithInstallmentInfo() Transaction {
	if t.InstallmentTotal > 0 {
		return t
	}
	if cur, total, ok := ParseInstallmentLabel(t.Description); ok {
		t.InstallmentCurrent = cur
		t.InstallmentTotal = total
	}
	return t
}

const (
	ClientAtivo    ClientStatus = "ATIVO"
	ClientInativo  ClientStatus = "INATIVO"
	ClientSuspenso ClientStatus = "SUSPENSO"
)

const (
	RoleAdmin  UserRole = "ADMIN"
	RoleViewer UserRole = "VIEWER"

	UserAtivo    UserStatus = "ATIVO"
	UserSuspenso UserStatus = "SUSPENSO"
)

type (
	ClientStatus string
	UserRole     string
	UserStatus   string

	Client struct {
		ID               string       `json:"id,omitempty"`
		RegistrationDate Day          `json:"registrationDate"`
		Name             string       `json:"name"`
		Phone            string       `json:"phone"`
		CPF              string       `json:"cpf"`
		Address          string       `json:"address"`
		Status           ClientStatus `json:"status"`
		Observation      string       `json:"observation"`
		DueDate          string       `json:"dueDate"` // day of month the plan is billed
		Consultant       string       `json:"consultant"`
		PlanValue        Money        `json:"planValue"`
	}

	User struct {
		ID         string     `json:"id,omitempty"`
		Name       string     `json:"name"`
		Email      string     `json:"email"`
		Role       UserRole   `json:"role"`
		Status     UserStatus `json:"status"`
		PhotoURL   string     `json:"photoUrl,omitempty"`
		LastAccess string     `json:"lastAccess,omitempty"`
	}

	// Session identifies who is acting. It is built at the edge and passed
	// to callers explicitly.
	Session struct {
		User      User
		StartedAt time.Time
	}
)

var (
	ErrEmptyName       = errors.New("empty name")
	ErrInvalidEmail    = errors.New("invalid email")
	ErrInvalidRole     = errors.New("invalid role")
	ErrInvalidDueDay   = errors.New("invalid due day")
	ErrInvalidClient   = errors.New("invalid client status")
	ErrInvalidUserStat = errors.New("invalid user status")
)

func (s ClientStatus) IsValid() bool {
	return s == ClientAtivo || s == ClientInativo || s == ClientSuspenso
}

func (c Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidClient, c.Status)
	}
	if c.DueDate != "" {
		d, err := strconv.Atoi(strings.TrimSpace(c.DueDate))
		if err != nil || d < 1 || d > 31 {
			return fmt.Errorf("%w: %q", ErrInvalidDueDay, c.DueDate)
		}
	}
	if !c.RegistrationDate.IsEmpty() {
		if err := c.RegistrationDate.Validate(); err != nil {
			return fmt.Errorf("registration date: %w", err)
		}
	}
	if c.PlanValue.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	at := strings.Index(u.Email, "@")
	if at < 1 || at == len(u.Email)-1 {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, u.Email)
	}
	if u.Role != RoleAdmin && u.Role != RoleViewer {
		return fmt.Errorf("%w: %q", ErrInvalidRole, u.Role)
	}
	if u.Status != UserAtivo && u.Status != UserSuspenso {
		return fmt.Errorf("%w: %q", ErrInvalidUserStat, u.Status)
	}
	return nil
}

// CanWrite reports whether the session may mutate records.
func (s Session) CanWrite() bool {
	return s.User.Role == RoleAdmin && s.User.Status == UserAtivo
}
