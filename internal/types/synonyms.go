package types

import "gorm.io/datatypes"

// SynonymList is the jsonb-backed synonym array shared by global and account
// facet rows.
type SynonymList = datatypes.JSONSlice[string]
