package central

import (
	"context"
	"strings"

	"github.com/vulnconsole/vulnconsole/internal/vulns"
)

const imageVulnerabilitiesOperation = "getImageVulnerabilities"

const imageVulnerabilitiesQuery = `query getImageVulnerabilities($id: ID!, $vulnQuery: String!, $pagination: Pagination!) {
    image(id: $id) {
        id
        imageVulnerabilityCounter(query: $vulnQuery) {
            all { total fixable }
            low { total fixable }
            moderate { total fixable }
            important { total fixable }
            critical { total fixable }
        }
        imageVulnerabilities(query: $vulnQuery, pagination: $pagination) {
            severity
            isFixable
            cve
            summary
            discoveredAtImage
            imageComponents {
                id
                name
                version
                fixedIn
                location
                layerIndex
            }
        }
    }
}`

type sortOptionInput struct {
	Field    string `json:"field"`
	Reversed bool   `json:"reversed"`
}

type paginationInput struct {
	Offset     int             `json:"offset"`
	Limit      int             `json:"limit"`
	SortOption sortOptionInput `json:"sortOption"`
}

type imageVulnerabilitiesInput struct {
	ID         string          `json:"id"`
	VulnQuery  string          `json:"vulnQuery"`
	Pagination paginationInput `json:"pagination"`
}

func imageVulnerabilitiesVariables(vars vulns.Variables) imageVulnerabilitiesInput {
	return imageVulnerabilitiesInput{
		ID:        vars.ID,
		VulnQuery: vars.Query,
		Pagination: paginationInput{
			Offset: vars.Pagination.Offset,
			Limit:  vars.Pagination.Limit,
			SortOption: sortOptionInput{
				Field:    vars.Pagination.SortOption.Field,
				Reversed: vars.Pagination.SortOption.Direction.Reversed(),
			},
		},
	}
}

// ImageVulnerabilities runs getImageVulnerabilities for vars.
func (c *Client) ImageVulnerabilities(ctx context.Context, vars vulns.Variables) (vulns.ImageVulnerabilities, error) {
	var out struct {
		Image *vulns.ImageVulnerabilities `json:"image"`
	}
	if err := c.Query(ctx, imageVulnerabilitiesOperation, imageVulnerabilitiesQuery, imageVulnerabilitiesVariables(vars), &out); err != nil {
		return vulns.ImageVulnerabilities{}, err
	}
	if out.Image == nil {
		return vulns.ImageVulnerabilities{}, &Error{
			Operation: imageVulnerabilitiesOperation,
			Message:   "Image " + strings.TrimSpace(vars.ID) + " was not found",
			Err:       ErrNotFound,
		}
	}

	image := *out.Image
	for i := range image.Vulnerabilities {
		image.Vulnerabilities[i].Severity = vulns.ParseSeverity(string(image.Vulnerabilities[i].Severity))
	}
	return image, nil
}
