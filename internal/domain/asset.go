package domain

// AssetID is an opaque unique key referencing an asset held by the
// external ownership registry. No two active listings may share one.
type AssetID string

// Account identifies a party in the external ownership and payment
// registries: a seller, a buyer, the engine's custody account, or the
// fee pool.
type Account string
