package transform

import (
	"strings"

	"github.com/LilVoxy/clickstream_etl/ETL/models"
)

const mobileMarker = "Mobile"

// ClassifyDevice returns "mobile" when the user agent carries the mobile marker, "desktop" otherwise
func ClassifyDevice(userAgent string) string {
	if strings.Contains(userAgent, mobileMarker) {
		return models.DeviceMobile
	}
	return models.DeviceDesktop
}
