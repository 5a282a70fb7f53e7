package entity

import "time"

type Credential struct {
	FID        uint64    `json:"fid"`
	PrivateKey string    `json:"private_key"`
	PublicKey  string    `json:"public_key"`
	CreatedAt  time.Time `json:"created_at"`
}
