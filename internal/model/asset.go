package model

import "time"

// AssetType is the instrument classification assigned by the ingestion
// classifier. It drives asset resolution (symbol lookup is skipped for
// mutual funds) and the asset class / risk bucket derivation.
type AssetType string

const (
	AssetTypeEquity     AssetType = "equity"
	AssetTypeETF        AssetType = "etf"
	AssetTypeMutualFund AssetType = "mutual_fund"
	AssetTypeIndexFund  AssetType = "index_fund"
	AssetTypeOther      AssetType = "other"
)

// AssetClass is the allocation bucket used by portfolio metrics.
type AssetClass string

const (
	AssetClassEquity     AssetClass = "equity"
	AssetClassETF        AssetClass = "etf"
	AssetClassMutualFund AssetClass = "mutual_fund"
	AssetClassOther      AssetClass = "other"
)

// RiskBucket is a coarse risk grade derived from the asset type.
type RiskBucket string

const (
	RiskBucketHigh   RiskBucket = "high"
	RiskBucketMedium RiskBucket = "medium"
	RiskBucketLow    RiskBucket = "low"
)

// classProfile pairs the derived asset class and risk bucket for one type.
type classProfile struct {
	Class AssetClass
	Risk  RiskBucket
}

// assetTypeProfiles is the fixed derivation table from asset type to
// (asset_class, risk_bucket). New types are added here, not in code branches.
var assetTypeProfiles = map[AssetType]classProfile{
	AssetTypeEquity:     {AssetClassEquity, RiskBucketHigh},
	AssetTypeETF:        {AssetClassETF, RiskBucketMedium},
	AssetTypeMutualFund: {AssetClassMutualFund, RiskBucketMedium},
	AssetTypeIndexFund:  {AssetClassMutualFund, RiskBucketMedium},
	AssetTypeOther:      {AssetClassOther, RiskBucketLow},
}

// Profile returns the derived asset class and risk bucket for the type.
// Unknown types fall back to the "other" profile.
func (t AssetType) Profile() (AssetClass, RiskBucket) {
	if p, ok := assetTypeProfiles[t]; ok {
		return p.Class, p.Risk
	}
	return AssetClassOther, RiskBucketLow
}

// IsFundLike reports whether the type's "symbol" is a non-standard scheme
// code rather than an exchange ticker. Symbol-based asset resolution is
// skipped for these types.
func (t AssetType) IsFundLike() bool {
	return t == AssetTypeMutualFund || t == AssetTypeIndexFund
}

// AllAssetClasses lists the allocation buckets in metrics column order.
var AllAssetClasses = []AssetClass{
	AssetClassEquity,
	AssetClassETF,
	AssetClassMutualFund,
	AssetClassOther,
}

// Asset represents a canonical security from the database. Identity is
// resolved by lookup priority (ISIN, then symbol, then name), never by the
// primary key. Created once, enriched with an ISIN later when a scheme-master
// lookup succeeds; never deleted by the ingestion pipeline.
type Asset struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	AssetType  AssetType  `json:"assetType"`
	Symbol     string     `json:"symbol,omitempty"`
	Isin       string     `json:"isin,omitempty"`
	AssetClass AssetClass `json:"assetClass"`
	RiskBucket RiskBucket `json:"riskBucket"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}
