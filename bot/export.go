package bot

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/goccy/go-json"

	"refer-earn-bot/models"
)

// usersExport is the user-id list, one id per line.
func (b *Bot) usersExport() (tgbotapi.FileBytes, error) {
	ids, err := b.store.AllUserIDs()
	if err != nil {
		return tgbotapi.FileBytes{}, err
	}
	lines := make([]string, len(ids))
	for i, id := range ids {
		lines[i] = strconv.FormatInt(id, 10)
	}
	return tgbotapi.FileBytes{
		Name:  "users.txt",
		Bytes: []byte(strings.Join(lines, "\n")),
	}, nil
}

// withdrawalsExport is the full withdrawal ledger as CSV.
func (b *Bot) withdrawalsExport() (tgbotapi.FileBytes, error) {
	withdrawals, err := b.store.AllWithdrawals()
	if err != nil {
		return tgbotapi.FileBytes{}, err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write([]string{"id", "user_id", "amount", "destination", "status", "created_at"}); err != nil {
		return tgbotapi.FileBytes{}, err
	}
	for _, w := range withdrawals {
		record := []string{
			strconv.FormatInt(w.ID, 10),
			strconv.FormatInt(w.UserID, 10),
			strconv.FormatFloat(w.Amount, 'f', 2, 64),
			w.Destination,
			w.Status,
			w.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return tgbotapi.FileBytes{}, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return tgbotapi.FileBytes{}, err
	}
	return tgbotapi.FileBytes{Name: "withdrawals.csv", Bytes: buf.Bytes()}, nil
}

type backup struct {
	ExportedAt  time.Time           `json:"exported_at"`
	Users       []models.User       `json:"users"`
	Channels    []string            `json:"channels"`
	Admins      []int64             `json:"admins"`
	Settings    []models.Setting    `json:"settings"`
	Withdrawals []models.Withdrawal `json:"withdrawals"`
}

// backupExport dumps all five tables as a JSON document. Owner only; the
// caller enforces that.
func (b *Bot) backupExport() (tgbotapi.FileBytes, error) {
	var (
		dump backup
		err  error
	)
	dump.ExportedAt = time.Now().UTC()
	if dump.Users, err = b.store.AllUsers(); err != nil {
		return tgbotapi.FileBytes{}, err
	}
	if dump.Channels, err = b.store.ListChannels(); err != nil {
		return tgbotapi.FileBytes{}, err
	}
	if dump.Admins, err = b.store.ListAdmins(); err != nil {
		return tgbotapi.FileBytes{}, err
	}
	if dump.Settings, err = b.store.AllSettings(); err != nil {
		return tgbotapi.FileBytes{}, err
	}
	if dump.Withdrawals, err = b.store.AllWithdrawals(); err != nil {
		return tgbotapi.FileBytes{}, err
	}

	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return tgbotapi.FileBytes{}, err
	}
	return tgbotapi.FileBytes{Name: "backup.json", Bytes: data}, nil
}
