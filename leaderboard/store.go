// Package leaderboard keeps each player's best score.
package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TopN is how many entries the public leaderboard shows.
const TopN = 10

// User is one leaderboard row.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	HighScore    int64     `gorm:"default:0" json:"highScore"`
	FigureString *string   `json:"figureString"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// Store is the leaderboard persistence boundary.
type Store interface {
	Top(ctx context.Context, n int) ([]User, error)
	Submit(ctx context.Context, username string, score int64, figure string) (User, error)
}

// applyScore folds a submitted score into the existing row. It reports
// whether the row needs writing.
func applyScore(existing *User, username string, score int64, figure string) (User, bool) {
	if existing == nil {
		u := User{Username: username, HighScore: score}
		if figure != "" {
			u.FigureString = &figure
		}
		return u, true
	}
	if score <= existing.HighScore {
		return *existing, false
	}
	u := *existing
	u.HighScore = score
	if figure != "" {
		u.FigureString = &figure
	}
	return u, true
}

// GormStore is a Store backed by Postgres.
type GormStore struct {
	db *gorm.DB
}

// Open connects to Postgres and migrates the users table.
func Open(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return NewGormStore(db)
}

// NewGormStore migrates the users table on db and wraps it.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&User{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Top returns up to n players ordered by high score, best first.
func (s *GormStore) Top(ctx context.Context, n int) ([]User, error) {
	var users []User
	err := s.db.WithContext(ctx).
		Order("high_score DESC").
		Limit(n).
		Find(&users).Error
	return users, err
}

// Submit creates the player's row or raises its high score when score is
// greater. Lower or equal scores return the stored row untouched.
func (s *GormStore) Submit(ctx context.Context, username string, score int64, figure string) (User, error) {
	var out User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = submit(gormRows{tx}, username, score, figure)
		return err
	})
	if err != nil {
		return User{}, fmt.Errorf("submit score for %s: %w", username, err)
	}
	return out, nil
}

// userRows is the row access Submit needs inside one transaction.
type userRows interface {
	// lock returns the row for username locked for update, or nil.
	lock(username string) (*User, error)
	// insertIfAbsent inserts u unless the username already exists and
	// reports whether it did.
	insertIfAbsent(u *User) (bool, error)
	save(u *User) error
}

func submit(rows userRows, username string, score int64, figure string) (User, error) {
	cur, err := rows.lock(username)
	if err != nil {
		return User{}, err
	}
	if cur == nil {
		u, _ := applyScore(nil, username, score, figure)
		inserted, err := rows.insertIfAbsent(&u)
		if err != nil {
			return User{}, err
		}
		if inserted {
			return u, nil
		}
		// Another submit created the row after our lookup.
		if cur, err = rows.lock(username); err != nil {
			return User{}, err
		}
		if cur == nil {
			return User{}, fmt.Errorf("row for %s vanished after insert conflict", username)
		}
	}
	u, changed := applyScore(cur, username, score, figure)
	if !changed {
		return u, nil
	}
	if err := rows.save(&u); err != nil {
		return User{}, err
	}
	return u, nil
}

type gormRows struct{ tx *gorm.DB }

func (r gormRows) lock(username string) (*User, error) {
	var u User
	err := r.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("username = ?", username).
		First(&u).Error
	switch {
	case err == nil:
		return &u, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	}
	return nil, err
}

func (r gormRows) insertIfAbsent(u *User) (bool, error) {
	res := r.tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoNothing: true,
	}).Create(u)
	return res.RowsAffected == 1, res.Error
}

func (r gormRows) save(u *User) error { return r.tx.Save(u).Error }
