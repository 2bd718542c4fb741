package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
	RoleOwner Role = "owner"
)

// roleOrder encodes the total order user < admin < owner.
var roleOrder = map[Role]int{
	RoleUser:  0,
	RoleAdmin: 1,
	RoleOwner: 2,
}

func (r Role) Valid() bool {
	_, ok := roleOrder[r]
	return ok
}

func (r Role) AtLeast(min Role) bool {
	return roleOrder[r] >= roleOrder[min]
}

// Assignable reports whether an admin may hand out this role. The owner
// role can only be produced by the out-of-band provisioning tool.
func (r Role) Assignable() bool {
	return r == RoleUser || r == RoleAdmin
}

type UserStatus string

const (
	StatusActive    UserStatus = "active"
	StatusSuspended UserStatus = "suspended"
)

func (s UserStatus) Valid() bool {
	return s == StatusActive || s == StatusSuspended
}

type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Email      string             `bson:"email" json:"email"`
	Password   string             `bson:"password" json:"-"`
	Role       Role               `bson:"role" json:"role"`
	Status     UserStatus         `bson:"status" json:"status"`
	IsVerified bool               `bson:"is_verified" json:"isVerified"`
	OTP        string             `bson:"otp,omitempty" json:"-"`
	OTPExpires time.Time          `bson:"otp_expires,omitempty" json:"-"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
}

// AdminCanModify is the single place the owner invariant lives: admins can
// manage users and other admins, never an owner account.
func AdminCanModify(target *User) bool {
	return target.Role != RoleOwner
}
