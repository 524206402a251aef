// Package models contains the NewMood tables and the query helpers the
// services use. It should be kept simple and only contain the fields that
// are needed.
package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Account is created on first Google sign-in and never deleted. Nickname is
// user-editable; everything else is owned by the identity provider.
type Account struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	GoogleSub string    `json:"-"`
	Email     string    `json:"email" gorm:"uniqueIndex:idx_account_email"`
	Nickname  string    `json:"nickname"`
	CreatedAt time.Time `json:"created_at"`
}

// Recommendation rows are append-only: created on submission, never edited.
type Recommendation struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	AccountID uint      `json:"account_id" gorm:"index;not null"`
	Title     string    `json:"title" gorm:"not null"`
	Artist    string    `json:"artist" gorm:"not null"`
	Reason    string    `json:"reason"`
	Link      string    `json:"link"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_reco_created"`
}

// Draw records that an account was shown a recommendation authored by
// someone else. Append-only.
type Draw struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	AccountID        uint      `json:"account_id" gorm:"index:idx_draws_account;not null"`
	RecommendationID uint      `json:"recommendation_id" gorm:"not null"`
	CreatedAt        time.Time `json:"created_at"`
}

// Migrate creates the three tables idempotently at startup.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Account{}, &Recommendation{}, &Draw{})
}

// UpsertAccount inserts a new account keyed on email, or refreshes the
// google subject id when the email already exists. The nickname is only set
// on first insert: a re-login must never clobber a user-chosen nickname.
func UpsertAccount(db *gorm.DB, sub, email, nickname string) (Account, error) {
	account := Account{GoogleSub: sub, Email: email, Nickname: nickname}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"google_sub": sub}),
	}).Create(&account).Error
	if err != nil {
		return Account{}, err
	}
	var stored Account
	if err := db.First(&stored, "email = ?", email).Error; err != nil {
		return Account{}, err
	}
	return stored, nil
}

// UpdateNickname overwrites the nickname and returns the stored record. The
// caller validates the nickname before getting here.
func UpdateNickname(db *gorm.DB, accountID uint, nickname string) (Account, error) {
	if err := db.Model(&Account{}).Where("id = ?", accountID).Update("nickname", nickname).Error; err != nil {
		return Account{}, err
	}
	var stored Account
	if err := db.First(&stored, accountID).Error; err != nil {
		return Account{}, err
	}
	return stored, nil
}

// DrawnRecommendation is a recommendation joined with its author's nickname,
// as handed back to the submitter.
type DrawnRecommendation struct {
	Recommendation
	AuthorNickname string
}

// SubmitAndDraw inserts rec and, in the same transaction, picks one
// recommendation authored by a different account uniformly at random and
// records the pairing as a draw. Returns nil when no eligible row exists,
// e.g. for the first-ever submitter; that is not an error.
func SubmitAndDraw(db *gorm.DB, rec *Recommendation) (*DrawnRecommendation, error) {
	var drawn *DrawnRecommendation
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return err
		}

		var picked Recommendation
		err := tx.Where("account_id <> ?", rec.AccountID).
			Order("RANDOM()").
			First(&picked).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		// LEFT JOIN semantics: a missing author just means no nickname.
		var author Account
		nickname := ""
		if err := tx.First(&author, picked.AccountID).Error; err == nil {
			nickname = author.Nickname
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(&Draw{AccountID: rec.AccountID, RecommendationID: picked.ID}).Error; err != nil {
			return err
		}
		drawn = &DrawnRecommendation{Recommendation: picked, AuthorNickname: nickname}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return drawn, nil
}

// DrawView is one row of an account's draw history.
type DrawView struct {
	DrawID    uint      `json:"draw_id"`
	CreatedAt time.Time `json:"created_at"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Reason    string    `json:"reason"`
	Link      string    `json:"link"`
	Thumbnail string    `json:"thumbnail" gorm:"-"`
	Nickname  string    `json:"nickname"`
}

const DefaultHistoryLimit = 100

// ListDraws returns the account's draws newest first, capped at limit.
// Thumbnail is left empty; the caller derives it from the stored link.
func ListDraws(db *gorm.DB, accountID uint, limit int) ([]DrawView, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	var rows []DrawView
	err := db.Table("draws").
		Select("draws.id AS draw_id, draws.created_at, recommendations.title, recommendations.artist, recommendations.reason, recommendations.link, accounts.nickname").
		Joins("JOIN recommendations ON recommendations.id = draws.recommendation_id").
		Joins("LEFT JOIN accounts ON accounts.id = recommendations.account_id").
		Where("draws.account_id = ?", accountID).
		Order("draws.id DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// Metrics are the admin page aggregate counts.
type Metrics struct {
	Accounts        int64 `json:"account_count"`
	Recommendations int64 `json:"recommendation_count"`
	Draws           int64 `json:"draw_count"`
}

func GetMetrics(db *gorm.DB) (Metrics, error) {
	var m Metrics
	if err := db.Model(&Account{}).Count(&m.Accounts).Error; err != nil {
		return m, err
	}
	if err := db.Model(&Recommendation{}).Count(&m.Recommendations).Error; err != nil {
		return m, err
	}
	if err := db.Model(&Draw{}).Count(&m.Draws).Error; err != nil {
		return m, err
	}
	return m, nil
}

// RecentRecommendation is one row of the admin recent-submissions listing.
type RecentRecommendation struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Reason    string    `json:"reason"`
	Link      string    `json:"link"`
	CreatedAt time.Time `json:"created_at"`
	Email     string    `json:"author_email"`
	Nickname  string    `json:"author_nickname"`
}

const DefaultRecentLimit = 50

// RecentRecommendations returns the newest submissions with their authors,
// for the admin view.
func RecentRecommendations(db *gorm.DB, limit int) ([]RecentRecommendation, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	var rows []RecentRecommendation
	err := db.Table("recommendations").
		Select("recommendations.id, recommendations.title, recommendations.artist, recommendations.reason, recommendations.link, recommendations.created_at, accounts.email, accounts.nickname").
		Joins("LEFT JOIN accounts ON accounts.id = recommendations.account_id").
		Order("recommendations.id DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
