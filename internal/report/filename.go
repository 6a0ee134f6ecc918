package report

import (
	"strings"
	"time"
)

// Filename builds <Kind>_<ScopeName>_<DD-MM-YYYY>.<ext> for a plan.
func Filename(plan *Plan, now time.Time, ext string) string {
	var prefix, name string
	switch plan.Kind {
	case KindZone:
		prefix, name = "Zone_Report", sanitize(plan.Zone.Name)+"_"+sanitize(plan.Site.Name)
	case KindSite:
		prefix, name = "Site_Report", sanitize(plan.Site.Name)
	default:
		prefix, name = "Inspection", sanitize(plan.Client.Name)
	}
	return prefix + "_" + name + "_" + now.Format(dateFormat) + "." + ext
}

// sanitize keeps ASCII letters and digits and replaces everything else with
// an underscore.
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "report"
	}
	return b.String()
}
