package google

import (
	"fmt"
	"time"

	"brastech/internal/core"
	"brastech/internal/services"
)

var (
	transactionHeader = []any{"ID", "Data", "Descrição", "Entidade", "Valor", "Status", "Tipo", "Categoria", "Data Pagamento", "Pagador", "Parcela"}
	clientHeader      = []any{"ID", "Data Cadastro", "Nome", "Telefone", "CPF", "Endereço", "Status", "Observação", "Vencimento", "Consultor", "Valor Plano"}
	userHeader        = []any{"ID", "Nome", "Email", "Perfil", "Status", "Último Acesso"}
)

// amount writes money as a plain number so the sheet can sum it.
func amount(m core.Money) any {
	return m.Decimal().InexactFloat64()
}

func installmentCell(tx core.Transaction) string {
	tx = tx.WithInstallmentInfo()
	if tx.InstallmentTotal == 0 {
		return ""
	}
	return fmt.Sprintf("%d/%d", tx.InstallmentCurrent, tx.InstallmentTotal)
}

func transactionRows(txs []core.Transaction) [][]any {
	rows := make([][]any, 0, len(txs)+1)
	rows = append(rows, transactionHeader)
	for _, tx := range txs {
		rows = append(rows, []any{
			tx.ID,
			tx.Date.String(),
			tx.Description,
			tx.Entity,
			amount(tx.Amount),
			string(tx.Status),
			string(tx.Type),
			tx.CategoryOrDefault(),
			tx.PaymentDate.String(),
			string(tx.Payer),
			installmentCell(tx),
		})
	}
	return rows
}

func clientRows(clients []core.Client) [][]any {
	rows := make([][]any, 0, len(clients)+1)
	rows = append(rows, clientHeader)
	for _, c := range clients {
		rows = append(rows, []any{
			c.ID,
			c.RegistrationDate.String(),
			c.Name,
			c.Phone,
			c.CPF,
			c.Address,
			string(c.Status),
			c.Observation,
			c.DueDate,
			c.Consultant,
			amount(c.PlanValue),
		})
	}
	return rows
}

func userRows(users []core.User) [][]any {
	rows := make([][]any, 0, len(users)+1)
	rows = append(rows, userHeader)
	for _, u := range users {
		rows = append(rows, []any{u.ID, u.Name, u.Email, string(u.Role), string(u.Status), u.LastAccess})
	}
	return rows
}

func backupRows(snap services.Snapshot) [][]any {
	return [][]any{
		{"Origem", snap.Source},
		{"Exportado em", snap.ExportDate.UTC().Format(time.RFC3339)},
		{"Transações", len(snap.Transactions)},
		{"Clientes", len(snap.Clients)},
		{"Usuários", len(snap.Users)},
	}
}
