package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// MobilityAid 行动辅助器具（"" 表示未填写，对应历史数据中的 null）
type MobilityAid string

const (
	MobilityUnset      MobilityAid = ""
	MobilityNone       MobilityAid = "none"
	MobilityCane       MobilityAid = "cane"
	MobilityWalker     MobilityAid = "walker"
	MobilityWheelchair MobilityAid = "wheelchair"
)

// IsAid 是否使用辅助器具（cane/walker/wheelchair）
func (m MobilityAid) IsAid() bool {
	switch m {
	case MobilityCane, MobilityWalker, MobilityWheelchair:
		return true
	}
	return false
}

// Valid 是否为合法枚举值
func (m MobilityAid) Valid() bool {
	return m == MobilityUnset || m == MobilityNone || m.IsAid()
}

// UserType 使用者身份
type UserType string

const (
	UserTypeSenior    UserType = "senior"
	UserTypeCaregiver UserType = "caregiver"
)

// Flag 布尔开关；兼容旧版本持久化的字符串 "true"/"false"
type Flag bool

// UnmarshalJSON 接受 true/false、"true"/"false" 与 null
func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = false
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = false
			return nil
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("invalid flag value %q", s)
		}
		*f = Flag(b)
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	*f = Flag(b)
	return nil
}

// Attribute 排除规则引用的个人属性
type Attribute string

const (
	AttributeMobility Attribute = "mobility"
	AttributeVision   Attribute = "vision"
	AttributeHearing  Attribute = "hearing"
)

// Valid 是否为已知属性
func (a Attribute) Valid() bool {
	switch a {
	case AttributeMobility, AttributeVision, AttributeHearing:
		return true
	}
	return false
}

// Profile 家庭成员个人风险档案（对应存储键 personalInfo）
type Profile struct {
	Age      string      `json:"age"`
	Mobility MobilityAid `json:"mobility"`
	Vision   Flag        `json:"vision"`
	Hearing  Flag        `json:"hearing"`
	UserType UserType    `json:"userType,omitempty"`
}

// HasMobilityAid 档案是否声明了行动辅助器具；nil 档案视为未个性化
func (p *Profile) HasMobilityAid() bool {
	return p != nil && p.Mobility.IsAid()
}

// HasVisionImpairment 是否视力受损
func (p *Profile) HasVisionImpairment() bool {
	return p != nil && bool(p.Vision)
}

// HasHearingImpairment 是否听力受损
func (p *Profile) HasHearingImpairment() bool {
	return p != nil && bool(p.Hearing)
}

// Satisfies 档案是否满足属性条件。
// mobility 为枚举属性（有辅助器具即满足），vision/hearing 为布尔属性，两者分开判断。
func (p *Profile) Satisfies(attr Attribute) bool {
	switch attr {
	case AttributeMobility:
		return p.HasMobilityAid()
	case AttributeVision:
		return p.HasVisionImpairment()
	case AttributeHearing:
		return p.HasHearingImpairment()
	}
	return false
}

// Validate 校验档案枚举字段
func (p *Profile) Validate() error {
	if !p.Mobility.Valid() {
		return fmt.Errorf("invalid mobility aid: %q", p.Mobility)
	}
	switch p.UserType {
	case "", UserTypeSenior, UserTypeCaregiver:
	default:
		return fmt.Errorf("invalid user type: %q", p.UserType)
	}
	return nil
}
