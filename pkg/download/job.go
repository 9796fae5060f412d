package download

import (
	"strings"
	"time"

	"github.com/Sternrassler/gbif-client/pkg/client"
)

// Job is the client-side view of a download job. Its status only changes by
// observing the server.
type Job struct {
	Key    string `json:"key"`
	Status Status `json:"status"`

	// ServiceStatus is the raw status reported by the service, e.g. "PREPARING".
	ServiceStatus string `json:"service_status,omitempty"`

	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`

	// ArtifactURL is set only once the job has succeeded.
	ArtifactURL string `json:"artifact_url,omitempty"`

	Size         int64  `json:"size,omitempty"`
	TotalRecords int64  `json:"total_records,omitempty"`
	Format       string `json:"format,omitempty"`
	DOI          string `json:"doi,omitempty"`
}

// Credentials authenticate download requests. They are passed per call and
// never stored.
type Credentials struct {
	Username string
	Password string
	Email    string
}

// Validate reports incomplete credentials as a *client.AuthenticationError.
func (c Credentials) Validate() error {
	var missing []string
	if c.Username == "" {
		missing = append(missing, "username")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return &client.AuthenticationError{Reason: "missing " + strings.Join(missing, " and ")}
	}
	return nil
}

// serviceTimeLayouts are the timestamp formats the download service uses.
var serviceTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
}

func parseServiceTime(s string) time.Time {
	for _, layout := range serviceTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
