package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DownloadOutcome struct {
	DownloaderName string `bson:"downloader" json:"downloader"`
	Succeeded      bool   `bson:"succeeded" json:"succeeded"`
	Error          string `bson:"error,omitempty" json:"error,omitempty"`
}

type DispatchRecord struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TorrentID  string             `bson:"torrent_id" json:"torrent_id"`
	Outcomes   []DownloadOutcome  `bson:"outcomes" json:"outcomes"`
	Succeeded  bool               `bson:"succeeded" json:"succeeded"`
	DurationMs int64              `bson:"duration_ms" json:"duration_ms"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}
