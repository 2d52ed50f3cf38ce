package quran

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TotalAyahs is the number of verses in the mushaf; random selection draws
// a global verse number from 1..TotalAyahs.
const TotalAyahs = 6236

// TotalSurahs is the number of chapters.
const TotalSurahs = 114

// Verse is one ayah merged across the source edition and any number of
// translation editions.
type Verse struct {
	Number           int               `json:"number"`
	Surah            int               `json:"surah"`
	Ayah             int               `json:"ayah"`
	SurahName        string            `json:"surah_name"`
	SurahEnglishName string            `json:"surah_english_name"`
	Text             string            `json:"text"`
	Translations     map[string]string `json:"translations"`
	Juz              int               `json:"juz"`
	HizbQuarter      int               `json:"hizb_quarter"`
	Manzil           int               `json:"manzil"`
	Page             int               `json:"page"`
	Ruku             int               `json:"ruku"`
	Sajda            bool              `json:"sajda"`
}

// Key identifies a verse by its chapter:verse coordinates.
func (v Verse) Key() string {
	return fmt.Sprintf("%d:%d", v.Surah, v.Ayah)
}

// Surah describes one chapter for navigation.
type Surah struct {
	Number                 int    `json:"number"`
	Name                   string `json:"name"`
	EnglishName            string `json:"english_name"`
	EnglishNameTranslation string `json:"english_name_translation"`
	NumberOfAyahs          int    `json:"number_of_ayahs"`
	RevelationType         string `json:"revelation_type"`
}

// envelope is the response wrapper of every API call.
type envelope struct {
	Code   int             `json:"code"`
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type apiSurah struct {
	Number                 int    `json:"number"`
	Name                   string `json:"name"`
	EnglishName            string `json:"englishName"`
	EnglishNameTranslation string `json:"englishNameTranslation"`
	NumberOfAyahs          int    `json:"numberOfAyahs"`
	RevelationType         string `json:"revelationType"`
}

func (s apiSurah) toSurah() Surah {
	return Surah{
		Number:                 s.Number,
		Name:                   s.Name,
		EnglishName:            s.EnglishName,
		EnglishNameTranslation: s.EnglishNameTranslation,
		NumberOfAyahs:          s.NumberOfAyahs,
		RevelationType:         s.RevelationType,
	}
}

type apiEdition struct {
	Identifier string `json:"identifier"`
	Language   string `json:"language"`
}

type apiAyah struct {
	Number        int        `json:"number"`
	Text          string     `json:"text"`
	Edition       apiEdition `json:"edition"`
	Surah         apiSurah   `json:"surah"`
	NumberInSurah int        `json:"numberInSurah"`
	Juz           int        `json:"juz"`
	Manzil        int        `json:"manzil"`
	Page          int        `json:"page"`
	Ruku          int        `json:"ruku"`
	HizbQuarter   int        `json:"hizbQuarter"`
	Sajda         sajdaFlag  `json:"sajda"`
}

// toVerse builds the structural part of a Verse. Text is left to the caller
// because it depends on which edition the ayah came from.
func (a apiAyah) toVerse() Verse {
	return Verse{
		Number:           a.Number,
		Surah:            a.Surah.Number,
		Ayah:             a.NumberInSurah,
		SurahName:        a.Surah.Name,
		SurahEnglishName: a.Surah.EnglishName,
		Translations:     map[string]string{},
		Juz:              a.Juz,
		HizbQuarter:      a.HizbQuarter,
		Manzil:           a.Manzil,
		Page:             a.Page,
		Ruku:             a.Ruku,
		Sajda:            bool(a.Sajda),
	}
}

type apiSearch struct {
	Count   int       `json:"count"`
	Matches []apiAyah `json:"matches"`
}

// sajdaFlag accepts the API's two encodings: false for ordinary verses and
// an object {id, recommended, obligatory} for prostration verses.
type sajdaFlag bool

func (s *sajdaFlag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("true")):
		*s = true
	case len(b) > 0 && b[0] == '{':
		*s = true
	default:
		*s = false
	}
	return nil
}
