package repository

import (
	"database/sql"
	"fmt"
	"time"

	appErrors "github.com/relaydesk/campaign-dispatch/internal/errors"
	"github.com/relaydesk/campaign-dispatch/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(c *model.Campaign, recipients []model.Recipient) error
	GetByID(id int) (*model.Campaign, error)
	ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error)
	UpdateStatus(campaignID int, status model.CampaignStatus) error
	RecipientCounts(campaignID int) (sent, total int, err error)
	ListDueScheduled(now time.Time) ([]int, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

// Create inserts the campaign and its recipients in one transaction so a
// campaign row can never exist without its recipient rows.
func (r *CampaignRepository) Create(c *model.Campaign, recipients []model.Recipient) error {
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.CampaignPending
	}

	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
        INSERT INTO campaigns (title, status, scheduled_at, created_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `
	if err := tx.QueryRow(query, c.Title, c.Status, c.ScheduledAt, c.CreatedAt).Scan(&c.ID); err != nil {
		return err
	}

	recipientQuery := `
        INSERT INTO recipients (campaign_id, name, email, phone, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	for i := range recipients {
		rec := &recipients[i]
		rec.CampaignID = c.ID
		if rec.Status == "" {
			rec.Status = model.RecipientQueued
		}
		rec.CreatedAt = c.CreatedAt
		if err := tx.QueryRow(recipientQuery, c.ID, rec.Name, rec.Email, rec.Phone, rec.Status, rec.CreatedAt).Scan(&rec.ID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *CampaignRepository) GetByID(id int) (*model.Campaign, error) {
	query := `
        SELECT id, title, status, scheduled_at, created_at, updated_at
        FROM campaigns WHERE id=$1
    `
	var c model.Campaign
	err := r.DB.QueryRow(query, id).Scan(&c.ID, &c.Title, &c.Status, &c.ScheduledAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) UpdateStatus(campaignID int, status model.CampaignStatus) error {
	query := `UPDATE campaigns SET status=$1, updated_at=$2 WHERE id=$3`
	_, err := r.DB.Exec(query, status, time.Now(), campaignID)
	return err
}

func (r *CampaignRepository) ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := `SELECT id, title, status, scheduled_at, created_at, updated_at FROM campaigns WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c := &model.Campaign{}
		if err := rows.Scan(&c.ID, &c.Title, &c.Status, &c.ScheduledAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}

	countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
	argsCount := []interface{}{}
	if status != "" {
		countQuery += " AND status=$1"
		argsCount = append(argsCount, status)
	}

	var total int
	if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

// RecipientCounts returns the sent and total recipient counts for a
// campaign, read fresh so progress always reflects the current rows.
func (r *CampaignRepository) RecipientCounts(campaignID int) (int, int, error) {
	query := `SELECT status, COUNT(*) FROM recipients WHERE campaign_id=$1 GROUP BY status`
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()

	var sent, total int
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return 0, 0, err
		}
		if status == string(model.RecipientSent) {
			sent = count
		}
		total += count
	}
	return sent, total, rows.Err()
}

// ListDueScheduled returns ids of pending campaigns whose scheduled_at
// has passed.
func (r *CampaignRepository) ListDueScheduled(now time.Time) ([]int, error) {
	query := `
        SELECT id FROM campaigns
        WHERE status=$1 AND scheduled_at IS NOT NULL AND scheduled_at <= $2
        ORDER BY scheduled_at
    `
	rows, err := r.DB.Query(query, model.CampaignPending, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
