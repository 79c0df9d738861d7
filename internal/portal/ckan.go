package portal

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type ckanSearchResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Count   int           `json:"count"`
		Results []ckanDataset `json:"results"`
	} `json:"result"`
}

type ckanDataset struct {
	Name            string            `json:"name"`
	Author          string            `json:"author"`
	AuthorEmail     string            `json:"author_email"`
	LicenseTitle    string            `json:"license_title"`
	LicenseURL      string            `json:"license_url"`
	MetadataCreated string            `json:"metadata_created"`
	Organization    *ckanOrganization `json:"organization"`
	Resources       []ckanResource    `json:"resources"`
}

type ckanOrganization struct {
	Title string `json:"title"`
}

type ckanResource struct {
	Name             string `json:"name"`
	Format           string `json:"format"`
	URL              string `json:"url"`
	MetadataModified string `json:"metadata_modified"`
}

// parseCKANSearch decodes a package_search response and returns the dataset
// whose name equals id, or nil when none matches.
func parseCKANSearch(body []byte, id string) (*ckanDataset, error) {
	var resp ckanSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse CKAN response: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("CKAN search for %q was not successful", id)
	}
	for i := range resp.Result.Results {
		if resp.Result.Results[i].Name == id {
			return &resp.Result.Results[i], nil
		}
	}
	return nil, nil
}

// selectCSVResource picks the resource most likely to be the year's CSV:
// CSV format first, then a name carrying both the year and "csv".
// Portals that mislabel formats still get their first resource.
func selectCSVResource(resources []ckanResource, year int) *ckanResource {
	y := strconv.Itoa(year)
	for i := range resources {
		format := strings.ToUpper(resources[i].Format)
		name := strings.ToLower(resources[i].Name)
		if strings.Contains(format, "CSV") || (strings.Contains(name, y) && strings.Contains(name, "csv")) {
			return &resources[i]
		}
	}
	if len(resources) > 0 {
		return &resources[0]
	}
	return nil
}
