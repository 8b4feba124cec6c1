package internal

import (
	"fmt"
	"strings"
)

// ModFileID identifies a single file of a mod on Nexus. It is the cache key
// granularity for download-link resolution.
type ModFileID struct {
	Game   string `json:"game"`
	ModID  int64  `json:"mod_id"`
	FileID int64  `json:"file_id"`
}

// String returns a stable textual form used in logs and cache file names
func (id ModFileID) String() string {
	return fmt.Sprintf("%s-%d-%d", id.Game, id.ModID, id.FileID)
}

// Validate checks that all identifier components are present
func (id ModFileID) Validate() error {
	if id.Game == "" {
		return NewNexusError("game name cannot be empty", ErrInvalidInput)
	}
	if id.ModID <= 0 {
		return NewNexusError(fmt.Sprintf("invalid mod id: %d", id.ModID), ErrInvalidInput)
	}
	if id.FileID <= 0 {
		return NewNexusError(fmt.Sprintf("invalid file id: %d", id.FileID), ErrInvalidInput)
	}
	return nil
}

// NormalizeGameName converts a display game name to the form Nexus expects
// in API paths ("Skyrim Special Edition" -> "skyrimspecialedition")
func NormalizeGameName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", ""))
}

// UserStatus is the result of validating the API key against the service
type UserStatus struct {
	UserID    int64  `json:"user_id"`
	Name      string `json:"name"`
	IsPremium bool   `json:"is_premium"`
	Email     string `json:"email,omitempty"`
}

// FileInfo describes a single downloadable file of a mod
type FileInfo struct {
	FileID      int64  `json:"file_id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	CategoryID  int    `json:"category_id"`
	IsPrimary   bool   `json:"is_primary"`
	SizeKB      int64  `json:"size"`
	FileName    string `json:"file_name"`
	UploadedAt  int64  `json:"uploaded_timestamp"`
	Description string `json:"description,omitempty"`
}

// ModFilesResponse is the file list for a mod. Files may be null in the raw
// response, which the client surfaces as an EmptyResult error.
type ModFilesResponse struct {
	Files []FileInfo `json:"files"`
}

// ModInfo describes a mod's metadata
type ModInfo struct {
	ModID      int64  `json:"mod_id"`
	GameID     int64  `json:"game_id"`
	Name       string `json:"name"`
	Summary    string `json:"summary"`
	Version    string `json:"version"`
	Author     string `json:"author"`
	Available  bool   `json:"available"`
	Status     string `json:"status"`
	PictureURL string `json:"picture_url,omitempty"`
}

// MD5Response is one entry of an md5_search result
type MD5Response struct {
	Mod         ModInfo `json:"mod"`
	FileDetails struct {
		FileID   int64  `json:"file_id"`
		Name     string `json:"name"`
		Version  string `json:"version"`
		MD5      string `json:"md5"`
		FileName string `json:"file_name"`
	} `json:"file_details"`
}

// EndorsementResponse is the result of endorsing a mod
type EndorsementResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// DownloadLink is one entry of a download_link.json response. The client
// always takes the first entry of the returned list.
type DownloadLink struct {
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	URI       string `json:"URI"`
}
