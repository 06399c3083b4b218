package scraper

import (
	"encoding/json"
	"fmt"
	"time"

	"sjsage522/propertyworker/helpers"
	"sjsage522/propertyworker/logger"
)

// PageHarvester retrieves one listing page at a time and normalizes its raw
// records. Request-level failures yield an empty page instead of an error;
// the progress report carries the evidence.
type PageHarvester struct {
	APIURL      string
	CityCode    string
	Detail      *RegistrationFetcher
	DetailDelay time.Duration
	Stats       *RunStats

	// fetchFunc is swapped out in tests.
	fetchFunc func(url string) ([]byte, error)

	log *logger.Logger
}

// NewPageHarvester creates a harvester for the listing API.
func NewPageHarvester(apiURL, cityCode string, detail *RegistrationFetcher, detailDelay time.Duration, stats *RunStats) *PageHarvester {
	return &PageHarvester{
		APIURL:      apiURL,
		CityCode:    cityCode,
		Detail:      detail,
		DetailDelay: detailDelay,
		Stats:       stats,
		fetchFunc:   helpers.FetchSimply,
		log:         logger.ForHarvester(),
	}
}

// listingPage is the shape of one listing API response. Raw records stay
// loosely typed because the upstream mixes string and number fields.
type listingPage struct {
	ProjectsCards []map[string]any `json:"projectsCards"`
}

// HarvestPage fetches one listing page, builds a Project per raw record and
// resolves each record's registration number. The returned counters cover
// this page's registration lookups only.
func (h *PageHarvester) HarvestPage(pageNo int) ([]Project, RegistrationStats) {
	var stats RegistrationStats

	url := fmt.Sprintf("%s?&pageNo=%d&city=%s", h.APIURL, pageNo, h.CityCode)

	body, err := h.fetchFunc(url)
	if err != nil {
		h.log.Error().Err(err).Int("page", pageNo).Msg("Page request failed")
		return nil, stats
	}

	var page listingPage
	if err := json.Unmarshal(body, &page); err != nil {
		h.log.Error().Err(err).Int("page", pageNo).Msg("Page JSON decode error")
		return nil, stats
	}

	if len(page.ProjectsCards) == 0 {
		return nil, stats
	}

	h.log.Info().Int("page", pageNo).Int("count", len(page.ProjectsCards)).Msg("Found projects")

	projects := make([]Project, 0, len(page.ProjectsCards))
	for i, raw := range page.ProjectsCards {
		project, err := h.processRecord(raw)
		if err != nil {
			h.Stats.AddFailed()
			h.log.Error().Err(err).Int("page", pageNo).Int("record", i+1).Msg("Project processing error")
			continue
		}

		if project.PDPPath != "" {
			h.log.Debug().
				Int("record", i+1).
				Int("total", len(page.ProjectsCards)).
				Msg("Looking up registration number")

			project.RERANumber = h.Detail.Fetch(project.PDPPath)
			if IsRegistrationSuccess(project.RERANumber) {
				stats.Success++
			} else {
				stats.Failed++
			}

			// Politeness pause after every detail fetch.
			time.Sleep(h.DetailDelay)
		} else {
			project.RERANumber = RegistrationNoPDPURL
			stats.Failed++
		}

		projects = append(projects, project)
		h.Stats.AddScraped()
	}

	return projects, stats
}

// processRecord builds a normalized Project from one raw record. A failure
// here skips the record without aborting the page.
func (h *PageHarvester) processRecord(raw map[string]any) (Project, error) {
	if raw == nil {
		return Project{}, fmt.Errorf("nil raw record")
	}
	return ProjectFromRaw(raw), nil
}
