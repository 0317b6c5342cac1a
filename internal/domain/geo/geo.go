package geo

// Ubigeo reference data. IDs are the official ubigeo codes
// (2 digits department, 4 province, 6 district), not uuids.

type Department struct {
	ID   string `gorm:"primaryKey;size:2" json:"id"`
	Name string `gorm:"column:name;not null" json:"name"`

	Provinces []Province `gorm:"constraint:OnDelete:CASCADE;foreignKey:DepartmentID;references:ID" json:"provinces,omitempty"`
}

func (Department) TableName() string { return "geo_department" }

type Province struct {
	ID           string      `gorm:"primaryKey;size:4" json:"id"`
	Name         string      `gorm:"column:name;not null" json:"name"`
	DepartmentID string      `gorm:"size:2;not null;index" json:"department_id"`
	Department   *Department `gorm:"foreignKey:DepartmentID;references:ID" json:"department,omitempty"`

	Districts []District `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProvinceID;references:ID" json:"districts,omitempty"`
}

func (Province) TableName() string { return "geo_province" }

type District struct {
	ID            string    `gorm:"primaryKey;size:6" json:"id"`
	Name          string    `gorm:"column:name;not null" json:"name"`
	ProvinceID    string    `gorm:"size:4;not null;index" json:"province_id"`
	Province      *Province `gorm:"foreignKey:ProvinceID;references:ID" json:"province,omitempty"`
	NaturalRegion string    `gorm:"column:natural_region" json:"natural_region,omitempty"`
}

func (District) TableName() string { return "geo_district" }
