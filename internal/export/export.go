package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gorm.io/datatypes"

	"gamedex/internal/models"
)

// MillionPlusBuckets is the owner-estimate allow-list for the export:
// only titles with an audience of at least one million make the cut.
var MillionPlusBuckets = []string{
	"1,000,000 .. 2,000,000",
	"2,000,000 .. 5,000,000",
	"5,000,000 .. 10,000,000",
	"10,000,000 .. 20,000,000",
	"20,000,000 .. 50,000,000",
	"50,000,000 .. 100,000,000",
	"100,000,000 .. 200,000,000",
}

// DefaultLimit caps the export artifact size.
const DefaultLimit = 1000

// GameRecord is one entry of the master.json artifact. Storefront fields
// supersede the statistics-derived ones where both exist; the legacy
// single-string developer/publisher fields are kept alongside the
// storefront arrays for backward compatibility.
type GameRecord struct {
	AppID int64  `json:"appId"`
	Name  string `json:"name"`

	CoverURL            *string         `json:"coverUrl"`
	ShortDescription    *string         `json:"shortDescription"`
	DetailedDescription *string         `json:"detailedDescription"`
	IsFree              *bool           `json:"isFree"`
	RequiredAge         *int            `json:"requiredAge"`
	Website             *string         `json:"website"`
	ReleaseDate         *string         `json:"releaseDate"`
	Developers          json.RawMessage `json:"developers"`
	Publishers          json.RawMessage `json:"publishers"`
	StoreGenres         json.RawMessage `json:"storeGenres"`
	Categories          json.RawMessage `json:"categories"`
	SupportedLanguages  *string         `json:"supportedLanguages"`
	PriceData           json.RawMessage `json:"priceData"`
	PCRequirements      json.RawMessage `json:"pcRequirements"`
	Screenshots         json.RawMessage `json:"screenshots"`
	Movies              json.RawMessage `json:"movies"`

	Price     *string        `json:"price"`
	Developer *string        `json:"developer"`
	Publisher *string        `json:"publisher"`
	Tags      map[string]int `json:"tags"`
	Genres    []string       `json:"genres"`
	ReviewPos *int           `json:"reviewPos"`
	ReviewNeg *int           `json:"reviewNeg"`
}

// ToRecord flattens one game with its per-title records into the external
// camelCase shape.
func ToRecord(game models.Game, metadata *models.GameMetadata, storefront *models.StorefrontData) GameRecord {
	record := GameRecord{
		AppID: game.AppID,
		Name:  game.Name,
		Tags:  map[string]int{},
	}

	if metadata != nil {
		record.Price = displayPrice(metadata.Price)
		record.Developer = metadata.Developer
		record.Publisher = metadata.Publisher
		record.ReviewPos = metadata.PositiveReviews
		record.ReviewNeg = metadata.NegativeReviews
		if len(metadata.Tags) > 0 {
			var tags map[string]int
			if err := json.Unmarshal(metadata.Tags, &tags); err == nil && tags != nil {
				record.Tags = tags
			}
		}
		if metadata.Genre != nil && *metadata.Genre != "" {
			record.Genres = []string{*metadata.Genre}
		}
	}
	if record.Genres == nil {
		record.Genres = []string{}
	}

	if storefront != nil {
		record.CoverURL = storefront.HeaderImage
		record.ShortDescription = storefront.ShortDescription
		record.DetailedDescription = storefront.DetailedDescription
		record.IsFree = storefront.IsFree
		record.RequiredAge = storefront.RequiredAge
		record.Website = storefront.Website
		record.ReleaseDate = storefront.ReleaseDate
		record.Developers = rawOrNull(storefront.Developers)
		record.Publishers = rawOrNull(storefront.Publishers)
		record.StoreGenres = rawOrNull(storefront.Genres)
		record.Categories = rawOrNull(storefront.Categories)
		record.SupportedLanguages = storefront.SupportedLanguages
		record.PriceData = rawOrNull(storefront.PriceOverview)
		record.PCRequirements = rawOrNull(storefront.PCRequirements)
		record.Screenshots = rawOrNull(storefront.Screenshots)
		record.Movies = rawOrNull(storefront.Movies)
	} else if metadata != nil {
		record.Developers = singletonArray(metadata.Developer)
		record.Publishers = singletonArray(metadata.Publisher)
	}

	return record
}

// Project converts store rows (with preloaded relations) into export
// records, dropping any survivor of the store-side filter that still
// carries an empty tag mapping.
func Project(games []models.Game) []GameRecord {
	records := make([]GameRecord, 0, len(games))
	for _, game := range games {
		record := ToRecord(game, game.Metadata, game.Storefront)
		if len(record.Tags) == 0 {
			continue
		}
		records = append(records, record)
	}
	return records
}

// FromSnapshot projects directly from in-memory collector output, applying
// the same eligibility filter the store query would: active, successful
// statistics fetch, allow-listed owner bucket, non-empty tags. Ordered by
// popularity rank ascending with unranked titles last, capped at limit.
func FromSnapshot(games []models.Game, metadata map[int64]models.GameMetadata, storefronts map[int64]models.StorefrontData, ownerBuckets []string, limit int) []GameRecord {
	allowed := make(map[string]struct{}, len(ownerBuckets))
	for _, bucket := range ownerBuckets {
		allowed[bucket] = struct{}{}
	}

	type candidate struct {
		game models.Game
		meta models.GameMetadata
	}
	var eligible []candidate
	for _, game := range games {
		if !game.IsActive {
			continue
		}
		meta, ok := metadata[game.AppID]
		if !ok || meta.FetchStatus != models.FetchSuccess.String() {
			continue
		}
		if meta.OwnersEstimate == nil {
			continue
		}
		if _, ok := allowed[*meta.OwnersEstimate]; !ok {
			continue
		}
		eligible = append(eligible, candidate{game: game, meta: meta})
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		ri, rj := eligible[i].meta.ScoreRank, eligible[j].meta.ScoreRank
		switch {
		case ri != nil && rj != nil && *ri != *rj:
			return *ri < *rj
		case ri != nil && rj == nil:
			return true
		case ri == nil && rj != nil:
			return false
		}
		return eligible[i].game.AppID < eligible[j].game.AppID
	})

	if limit <= 0 {
		limit = DefaultLimit
	}

	records := make([]GameRecord, 0, len(eligible))
	for _, c := range eligible {
		if len(records) >= limit {
			break
		}
		var storefront *models.StorefrontData
		if sf, ok := storefronts[c.game.AppID]; ok && sf.FetchStatus == models.FetchSuccess.String() {
			storefront = &sf
		}
		meta := c.meta
		record := ToRecord(c.game, &meta, storefront)
		if len(record.Tags) == 0 {
			continue
		}
		records = append(records, record)
	}
	return records
}

// WriteFile writes the artifact, creating parent directories as needed.
func WriteFile(path string, records []GameRecord) error {
	if records == nil {
		records = []GameRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	data = append(data, '\n')
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// displayPrice tolerates a raw "0" surviving in the store from older
// collection runs.
func displayPrice(price *string) *string {
	if price == nil {
		return nil
	}
	if *price == "0" {
		free := "Free"
		return &free
	}
	return price
}

func rawOrNull(raw datatypes.JSON) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	return json.RawMessage(raw)
}

func singletonArray(value *string) json.RawMessage {
	if value == nil || *value == "" {
		return nil
	}
	data, err := json.Marshal([]string{*value})
	if err != nil {
		return nil
	}
	return data
}
