package config

import (
	"fmt"
	"os"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/organization"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"gopkg.in/yaml.v3"
)

// Seed is the organization and member roster loaded into the memory store.
type Seed struct {
	Organizations []SeedOrganization `yaml:"organizations"`
	Members       []SeedMember       `yaml:"members"`
}

type SeedOrganization struct {
	ID                   string        `yaml:"id"`
	Name                 string        `yaml:"name"`
	Timezone             string        `yaml:"timezone"`
	WorkdayHours         int           `yaml:"workday_hours"`
	LatenessGraceMinutes int           `yaml:"lateness_grace_minutes"`
	DayStart             string        `yaml:"day_start"` // HH:MM
	Holidays             []string      `yaml:"holidays"`
	DefaultGeofence      *SeedGeofence `yaml:"default_geofence"`
	DailyMinimumMinutes  int           `yaml:"daily_minimum_minutes"`
	WeeklyMinimumMinutes int           `yaml:"weekly_minimum_minutes"`
}

type SeedGeofence struct {
	Lat          float64 `yaml:"lat"`
	Lng          float64 `yaml:"lng"`
	RadiusMeters float64 `yaml:"radius_meters"`
}

type SeedMember struct {
	UserID string `yaml:"user_id"`
	OrgID  string `yaml:"org_id"`
	TeamID string `yaml:"team_id"`
	Name   string `yaml:"name"`
}

// LoadSeed reads and checks a YAML seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	if _, err := seed.OrganizationList(); err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(seed.Organizations))
	for _, org := range seed.Organizations {
		known[org.ID] = true
	}
	for _, m := range seed.Members {
		if m.UserID == "" || !known[m.OrgID] {
			return nil, fmt.Errorf("seed member %q: unknown organization %q", m.UserID, m.OrgID)
		}
	}

	return &seed, nil
}

// OrganizationList converts the seeded organizations. Workday hours default
// to 8 and the day start to 09:00.
func (s *Seed) OrganizationList() ([]organization.Organization, error) {
	orgs := make([]organization.Organization, 0, len(s.Organizations))
	for _, o := range s.Organizations {
		if o.ID == "" {
			return nil, fmt.Errorf("seed organization without id")
		}

		org := organization.Organization{
			ID:                   o.ID,
			Name:                 o.Name,
			Timezone:             o.Timezone,
			WorkdayHours:         o.WorkdayHours,
			LatenessGraceMinutes: o.LatenessGraceMinutes,
			DayStartHour:         9,
			Holidays:             o.Holidays,
			DailyMinimumMinutes:  o.DailyMinimumMinutes,
			WeeklyMinimumMinutes: o.WeeklyMinimumMinutes,
		}
		if org.WorkdayHours == 0 {
			org.WorkdayHours = 8
		}
		if o.DayStart != "" {
			if _, err := fmt.Sscanf(o.DayStart, "%d:%d", &org.DayStartHour, &org.DayStartMinute); err != nil ||
				org.DayStartHour < 0 || org.DayStartHour > 23 || org.DayStartMinute < 0 || org.DayStartMinute > 59 {
				return nil, fmt.Errorf("seed organization %s: invalid day_start %q", o.ID, o.DayStart)
			}
		}
		if o.DefaultGeofence != nil {
			org.DefaultGeofence = &punch.Geo{
				Lat:          o.DefaultGeofence.Lat,
				Lng:          o.DefaultGeofence.Lng,
				RadiusMeters: o.DefaultGeofence.RadiusMeters,
			}
		}
		if _, err := org.Location(); err != nil {
			return nil, fmt.Errorf("seed organization %s: %w", o.ID, err)
		}
		orgs = append(orgs, org)
	}
	return orgs, nil
}

// MemberList converts the seeded members.
func (s *Seed) MemberList() []organization.Member {
	members := make([]organization.Member, 0, len(s.Members))
	for _, m := range s.Members {
		member := organization.Member{UserID: m.UserID, OrgID: m.OrgID, Name: m.Name}
		if m.TeamID != "" {
			team := m.TeamID
			member.TeamID = &team
		}
		members = append(members, member)
	}
	return members
}
