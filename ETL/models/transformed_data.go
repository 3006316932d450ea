package models

// TransformedData holds the transformed tables to be loaded into OLAP
type TransformedData struct {
	// Dimensions
	Users   []UserDimension
	Devices []DeviceDimension

	// Facts
	Events      []SessionEvent
	Funnel      []FunnelRecord
	Attribution []AttributionRecord

	// Metadata
	Metadata ETLMetadata
}
