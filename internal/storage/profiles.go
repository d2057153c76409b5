package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
)

const profileColumns = `user_id, full_name, bio, city, country, timezone, availability,
	profile_image_url, languages, skills_offered, skills_wanted,
	email_notifications, push_notifications, match_alerts, message_alerts,
	review_alerts, weekly_digest, created_at, updated_at`

// ProfileUpdate replaces the mutable fields of a profile document.
type ProfileUpdate struct {
	FullName        string
	Bio             string
	City            string
	Country         string
	Timezone        string
	Availability    string
	ProfileImageURL string
	Languages       []string
	SkillsOffered   []string
	SkillsWanted    []string
	Notifications   NotificationSettings
}

func scanProfile(row pgx.Row) (Profile, error) {
	var p Profile
	err := row.Scan(&p.UserID, &p.FullName, &p.Bio, &p.City, &p.Country, &p.Timezone,
		&p.Availability, &p.ProfileImageURL, &p.Languages, &p.SkillsOffered, &p.SkillsWanted,
		&p.Notifications.Email, &p.Notifications.Push, &p.Notifications.MatchAlerts,
		&p.Notifications.MessageAlerts, &p.Notifications.ReviewAlerts,
		&p.Notifications.WeeklyDigest, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ProfileByUserID reads one profile document.
func (s *Store) ProfileByUserID(ctx context.Context, user int64) (Profile, error) {
	sql := `select ` + profileColumns + ` from profiles where user_id = $1`
	p, err := scanProfile(s.db.QueryRow(ctx, sql, user))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrUserNotExist
		}
		return Profile{}, err
	}
	return p, nil
}

// UpdateProfile replaces the mutable profile fields and returns the stored
// document.
func (s *Store) UpdateProfile(ctx context.Context, user int64, upd ProfileUpdate) (Profile, error) {
	s.logger.Debugf("Updating profile for user %d", user)

	languages := upd.Languages
	if languages == nil {
		languages = []string{}
	}
	offered := upd.SkillsOffered
	if offered == nil {
		offered = []string{}
	}
	wanted := upd.SkillsWanted
	if wanted == nil {
		wanted = []string{}
	}

	sql := `update profiles
			   set full_name = $2,
				   bio = $3,
				   city = $4,
				   country = $5,
				   timezone = $6,
				   availability = $7,
				   profile_image_url = $8,
				   languages = $9,
				   skills_offered = $10,
				   skills_wanted = $11,
				   email_notifications = $12,
				   push_notifications = $13,
				   match_alerts = $14,
				   message_alerts = $15,
				   review_alerts = $16,
				   weekly_digest = $17,
				   updated_at = $18
			 where user_id = $1
			returning ` + profileColumns
	p, err := scanProfile(s.db.QueryRow(ctx, sql, user,
		upd.FullName, upd.Bio, upd.City, upd.Country, upd.Timezone, upd.Availability,
		upd.ProfileImageURL, languages, offered, wanted,
		upd.Notifications.Email, upd.Notifications.Push, upd.Notifications.MatchAlerts,
		upd.Notifications.MessageAlerts, upd.Notifications.ReviewAlerts,
		upd.Notifications.WeeklyDigest, time.Now()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrUserNotExist
		}
		return Profile{}, err
	}

	return p, nil
}

// Timezones returns the timezone reference list.
func (s *Store) Timezones(ctx context.Context) ([]Timezone, error) {
	rows, err := s.db.Query(ctx, "select id, name, utc_offset from timezones order by name asc")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []Timezone
	for rows.Next() {
		var tz Timezone
		if err = rows.Scan(&tz.ID, &tz.Name, &tz.UTCOffset); err != nil {
			return nil, err
		}
		zones = append(zones, tz)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return zones, nil
}
