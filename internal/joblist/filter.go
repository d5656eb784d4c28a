package joblist

import (
	"strings"

	"github.com/0xPuncker/cron-console/pkg/types"
)

type FilterType string

const (
	FilterAll      FilterType = "all"
	FilterEnabled  FilterType = "enabled"
	FilterDisabled FilterType = "disabled"
)

var FilterTypes = []FilterType{FilterAll, FilterEnabled, FilterDisabled}

// ParseFilterType maps a query value to a filter type. Anything unknown means all.
func ParseFilterType(raw string) FilterType {
	switch FilterType(strings.ToLower(strings.TrimSpace(raw))) {
	case FilterEnabled:
		return FilterEnabled
	case FilterDisabled:
		return FilterDisabled
	default:
		return FilterAll
	}
}

// Filter returns the jobs matching the enabled state and the search query, in
// input order. The query matches name, description or id, ignoring case.
func Filter(jobs []types.Job, filter FilterType, query string) []types.Job {
	needle := strings.ToLower(strings.TrimSpace(query))
	out := make([]types.Job, 0, len(jobs))

	for _, job := range jobs {
		if filter == FilterEnabled && !job.Enabled {
			continue
		}
		if filter == FilterDisabled && job.Enabled {
			continue
		}
		if needle != "" && !matches(job, needle) {
			continue
		}
		out = append(out, job)
	}
	return out
}

func matches(job types.Job, needle string) bool {
	for _, field := range []string{job.Name, job.Description, job.ID} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// Counts holds the numbers shown on the filter tabs.
type Counts struct {
	All      int `json:"all"`
	Enabled  int `json:"enabled"`
	Disabled int `json:"disabled"`
}

func Count(jobs []types.Job) Counts {
	c := Counts{All: len(jobs)}
	for _, job := range jobs {
		if job.Enabled {
			c.Enabled++
		} else {
			c.Disabled++
		}
	}
	return c
}

// Of returns the count for one tab.
func (c Counts) Of(filter FilterType) int {
	switch filter {
	case FilterEnabled:
		return c.Enabled
	case FilterDisabled:
		return c.Disabled
	default:
		return c.All
	}
}
