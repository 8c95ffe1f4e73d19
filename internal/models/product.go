package models

type Product struct {
	ID   int64  `json:"id" bson:"_id"`
	Name string `json:"name" bson:"name"`
}

type ProductRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// Setting is a key/value configuration row.
type Setting struct {
	Key   string `json:"key" bson:"_id"`
	Value string `json:"value" bson:"value"`
}

// SettingCurrentModel holds the name of the model used for analysis.
const SettingCurrentModel = "current_model"
