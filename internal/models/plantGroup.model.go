package models

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GroupRole string

const (
	RoleOwner  GroupRole = "owner"
	RoleMember GroupRole = "member"
)

type PlantGroup struct {
	BaseUUIDModel
	Name        string             `gorm:"type:text;not null"       json:"name"`
	OwnerUserID uuid.UUID          `gorm:"type:uuid;not null;index" json:"ownerUserId"`
	InviteCode  string             `gorm:"type:text;uniqueIndex"    json:"inviteCode"`
	Members     []PlantGroupMember `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
}

func (g *PlantGroup) BeforeCreate(tx *gorm.DB) error {
	if g.InviteCode == "" {
		g.InviteCode = strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	}
	return nil
}

type PlantGroupMember struct {
	BaseUUIDModel
	GroupID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_group_member" json:"groupId"`
	UserID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_group_member" json:"userId"`
	User    *User      `gorm:"foreignKey:UserID"                               json:"user,omitempty"`
	Role    GroupRole  `gorm:"type:text;default:'member'"                      json:"role"`
}
