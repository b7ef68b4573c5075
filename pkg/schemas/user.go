package schemas

import (
	"time"
)

const (
	ROLE_USER  = "user"
	ROLE_ADMIN = "admin"
)

type User struct {
	Id          string    `bson:"_id" json:"id"`
	Ctime       time.Time `bson:"ctime" json:"ctime"`
	Email       string    `bson:"email,omitempty" json:"email"`
	PassHash    string    `bson:"passHash,omitempty" json:"-"`
	GoogleId    string    `bson:"googleId,omitempty" json:"-"`
	FirebaseUid string    `bson:"firebaseUid,omitempty" json:"-"`
	FirstName   string    `bson:"firstName" json:"firstName"`
	LastName    string    `bson:"lastName" json:"lastName"`
	Handle      string    `bson:"handle" json:"handle"`
	Role        string    `bson:"role" json:"role"`
	TotalTokens int       `bson:"totalTokens" json:"totalTokens"` // display cache, not authoritative
	LedgerSeq   int64     `bson:"ledgerSeq" json:"-"`
}

func (u *User) IsAdmin() bool {
	return u.Role == ROLE_ADMIN
}
