package models

import "time"

// Package — запись о загруженном участником пакете настроек.
type Package struct {
	ID        int64
	MemberID  int64
	Version   int
	Platform  *string
	Arch      *string
	UpdatedAt time.Time
	BlobKey   string // Ключ файла в хранилище
	Size      int64  // Размер файла в байтах
}

// PackageUpload описывает новый пакет перед сохранением файла.
type PackageUpload struct {
	MemberID int64
	Version  int
	Platform *string
	Arch     *string
	Size     int64
}
