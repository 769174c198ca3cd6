package model

import "time"

// KPICategory classifies an extracted metric.
type KPICategory string

const (
	KPICategoryOperational KPICategory = "operational"
	KPICategoryCustomer    KPICategory = "customer"
	KPICategoryFinancial   KPICategory = "financial"
	KPICategoryEfficiency  KPICategory = "efficiency"
	KPICategoryGrowth      KPICategory = "growth"
)

// KPIUnit is the unit of an extracted metric value.
type KPIUnit string

const (
	KPIUnitCount      KPIUnit = "count"
	KPIUnitUSD        KPIUnit = "USD"
	KPIUnitPercentage KPIUnit = "percentage"
)

// KPIPeriod is the reporting period a metric covers.
type KPIPeriod string

const (
	KPIPeriodQuarterly KPIPeriod = "quarterly"
	KPIPeriodAnnual    KPIPeriod = "annual"
	KPIPeriodMonthly   KPIPeriod = "monthly"
)

// ExtractionMethod identifies how a KPI was produced.
type ExtractionMethod string

const (
	ExtractionPattern ExtractionMethod = "pattern"
	ExtractionLLM     ExtractionMethod = "llm"
	ExtractionTable   ExtractionMethod = "table"
	ExtractionManual  ExtractionMethod = "manual"
)

// ExtractedKPI is a single metric pulled out of a financial document.
// KPIs are returned directly in extraction responses and never persisted.
type ExtractedKPI struct {
	Symbol           string           `json:"symbol"`
	KPIType          string           `json:"kpiType"`
	DisplayName      string           `json:"displayName"`
	Category         KPICategory      `json:"category"`
	Value            float64          `json:"value"`
	Unit             KPIUnit          `json:"unit"`
	Period           KPIPeriod        `json:"period"`
	Date             string           `json:"date,omitempty"`
	SourceText       string           `json:"sourceText"`
	SourceDocument   string           `json:"sourceDocument,omitempty"`
	ExtractionMethod ExtractionMethod `json:"extractionMethod"`
	Confidence       float64          `json:"confidence"`
	Validated        bool             `json:"validated"`
	QualityScore     float64          `json:"qualityScore"`
	AnomalyFlags     []string         `json:"anomalyFlags"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}
