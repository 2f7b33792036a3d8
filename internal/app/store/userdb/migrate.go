// internal/app/store/userdb/migrate.go
package userdb

import (
	"encoding/json"
	"fmt"
)

// fallbackSeasonID is assumed for legacy records that carried a single
// verification id but no season list.
const fallbackSeasonID = "2024E"

// migrate brings a raw database document up to CurrentSchemaVersion. A
// document at the current version passes through untouched. A missing or
// unrecognized version field is treated as the oldest known shape, which is
// the safe direction: the old shape decodes leniently, the new one does not.
func migrate(raw []byte) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	version := 0
	if v, ok := doc["version"]; ok {
		if err := json.Unmarshal(v, &version); err != nil {
			return nil, fmt.Errorf("invalid version field: %w", err)
		}
	}
	if version >= CurrentSchemaVersion {
		return raw, nil
	}

	users := make(map[string]map[string]json.RawMessage)
	if u, ok := doc["users"]; ok {
		if err := json.Unmarshal(u, &users); err != nil {
			return nil, fmt.Errorf("invalid users field: %w", err)
		}
	}

	for id, user := range users {
		migrated, err := migrateUser(user)
		if err != nil {
			return nil, fmt.Errorf("migrate user %s: %w", id, err)
		}
		users[id] = migrated
	}

	usersRaw, err := json.Marshal(users)
	if err != nil {
		return nil, err
	}
	doc["users"] = usersRaw
	doc["version"], _ = json.Marshal(CurrentSchemaVersion)

	return json.Marshal(doc)
}

// migrateUser rewrites one pre-v3 record: the single verification_id plus a
// seasons list become the verification_ids map. Only the first listed season
// gets the id, matching how the single-season records were actually used;
// with no seasons at all the record is assigned to the fallback season.
func migrateUser(user map[string]json.RawMessage) (map[string]json.RawMessage, error) {
	if _, ok := user["verification_ids"]; ok {
		return user, nil
	}

	var verificationID string
	if v, ok := user["verification_id"]; ok {
		if err := json.Unmarshal(v, &verificationID); err != nil {
			return nil, fmt.Errorf("invalid verification_id: %w", err)
		}
	}

	var seasons []string
	if s, ok := user["seasons"]; ok {
		if err := json.Unmarshal(s, &seasons); err != nil {
			return nil, fmt.Errorf("invalid seasons list: %w", err)
		}
	}

	ids := map[string]string{}
	if verificationID != "" {
		season := fallbackSeasonID
		if len(seasons) > 0 {
			season = seasons[0]
		}
		ids[season] = verificationID
	}

	idsRaw, err := json.Marshal(ids)
	if err != nil {
		return nil, err
	}
	user["verification_ids"] = idsRaw
	delete(user, "verification_id")
	delete(user, "seasons")
	return user, nil
}
