package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vbonduro/siteinspect/internal/domain"
)

func TestFilename(t *testing.T) {
	now := date(2026, time.February, 3)
	client := &domain.Client{Name: "Café & Co"}
	site := &domain.Site{Name: "Main St."}
	zone := &domain.Zone{Name: "Roof"}

	assert.Equal(t, "Inspection_Caf____Co_03-02-2026.pdf",
		Filename(&Plan{Kind: KindInspection, Client: client, Site: site}, now, "pdf"))
	assert.Equal(t, "Zone_Report_Roof_Main_St__03-02-2026.pdf",
		Filename(&Plan{Kind: KindZone, Client: client, Site: site, Zone: zone}, now, "pdf"))
	assert.Equal(t, "Site_Report_Main_St__03-02-2026.pdf",
		Filename(&Plan{Kind: KindSite, Client: client, Site: site}, now, "pdf"))
	assert.Equal(t, "Site_Report_report_03-02-2026.pdf",
		Filename(&Plan{Kind: KindSite, Client: client, Site: &domain.Site{}}, now, "pdf"))
}
