// Rostersync - SWGOH Guild Roster Synchronization for Google Sheets
// Copyright 2026 A. Ruiz (aruizcam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aruizcam/rostersync

// Package comlink defines the payload shapes of the SWGOH Comlink game-data
// service (POST /metadata, /data, /guild, /player).
//
// Field names drift across Comlink versions ("member" vs "members", nested
// "payload" envelopes, numbers serialized as strings). Every drift-prone field
// is modeled as an ordered set of alias struct fields plus a resolver method
// that evaluates the aliases in priority order and returns the first present
// value. Callers use the resolver methods, never the raw alias fields.
package comlink

// MetadataResponse is the POST /metadata response. Only the game-data version
// is consumed; it selects the /data catalog segment to request.
type MetadataResponse struct {
	LatestGamedataVersion string            `json:"latestGamedataVersion"`
	Payload               *MetadataEnvelope `json:"payload,omitempty"`
	Data                  *MetadataEnvelope `json:"data,omitempty"`
}

// MetadataEnvelope is the nested form some Comlink versions wrap the
// metadata response in.
type MetadataEnvelope struct {
	LatestGamedataVersion string `json:"latestGamedataVersion"`
}

// Version resolves the game-data version across envelope variants.
func (m *MetadataResponse) Version() string {
	candidates := []string{m.LatestGamedataVersion}
	if m.Payload != nil {
		candidates = append(candidates, m.Payload.LatestGamedataVersion)
	}
	if m.Data != nil {
		candidates = append(candidates, m.Data.LatestGamedataVersion)
	}
	return firstNonEmpty(candidates...)
}

// DataResponse is the POST /data response for the "units" item segment.
type DataResponse struct {
	Units   []UnitDefinition `json:"units"`
	Payload *DataEnvelope    `json:"payload,omitempty"`
}

// DataEnvelope is the nested form of the /data response.
type DataEnvelope struct {
	Units []UnitDefinition `json:"units"`
}

// UnitsList resolves the unit definition list across envelope variants.
func (d *DataResponse) UnitsList() []UnitDefinition {
	if len(d.Units) > 0 {
		return d.Units
	}
	if d.Payload != nil {
		return d.Payload.Units
	}
	return nil
}

// UnitDefinition is a game catalog unit from /data. CombatType 2 marks ships.
type UnitDefinition struct {
	BaseIDField string  `json:"baseId"`
	IDField     string  `json:"id"`
	NameKey     string  `json:"nameKey"`
	CombatType  FlexInt `json:"combatType"`
	Obtainable  bool    `json:"obtainable"`
	Rarity      FlexInt `json:"rarity"`
}

// BaseID resolves the unit's catalog key.
func (u *UnitDefinition) BaseID() string {
	return firstNonEmpty(u.BaseIDField, u.IDField)
}

// IsShip reports whether the unit is a ship.
func (u *UnitDefinition) IsShip() bool {
	return u.CombatType == 2
}
