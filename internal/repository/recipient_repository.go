package repository

import (
	"database/sql"
	"time"

	"github.com/relaydesk/campaign-dispatch/internal/model"
)

// RecipientRepositoryInterface defines the recipient queries the
// service and dispatch layers need.
type RecipientRepositoryInterface interface {
	ListByCampaign(campaignID int) ([]model.Recipient, error)
	ListQueued(campaignID int) ([]model.Recipient, error)
	UpdateStatus(id int, status model.RecipientStatus) error
}

type RecipientRepository struct {
	DB *sql.DB
}

func (r *RecipientRepository) ListByCampaign(campaignID int) ([]model.Recipient, error) {
	return r.list(campaignID, "")
}

// ListQueued returns the dispatch set for a run: recipients still in
// queued status, in creation (id) order. The status index keeps this
// cheap for large campaigns.
func (r *RecipientRepository) ListQueued(campaignID int) ([]model.Recipient, error) {
	return r.list(campaignID, model.RecipientQueued)
}

func (r *RecipientRepository) list(campaignID int, status model.RecipientStatus) ([]model.Recipient, error) {
	query := `
        SELECT id, campaign_id, name, email, phone, status, created_at
        FROM recipients
        WHERE campaign_id=$1
    `
	args := []interface{}{campaignID}
	if status != "" {
		query += ` AND status=$2`
		args = append(args, status)
	}
	query += ` ORDER BY id`

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipients := []model.Recipient{}
	for rows.Next() {
		var rec model.Recipient
		if err := rows.Scan(&rec.ID, &rec.CampaignID, &rec.Name, &rec.Email, &rec.Phone, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, err
		}
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}

func (r *RecipientRepository) UpdateStatus(id int, status model.RecipientStatus) error {
	query := `UPDATE recipients SET status=$1, updated_at=$2 WHERE id=$3`
	_, err := r.DB.Exec(query, status, time.Now(), id)
	return err
}

var _ RecipientRepositoryInterface = (*RecipientRepository)(nil)
