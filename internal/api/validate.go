package api

import (
	"regexp"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/rivo/uniseg"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var passwordRe = regexp.MustCompile(`^[A-Za-z0-9~` + "`" + `!@#$%^&*()_\-+={[}\]|\\:;"'<,>.?/]{8,128}$`)

func NewValidator() *validator.Validate {

	v := validator.New()

	v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return passwordRe.MatchString(fl.Field().String())
	})

	v.RegisterValidation("maxgraphemes", func(fl validator.FieldLevel) bool {

		maxLength, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}

		gr := uniseg.NewGraphemes(fl.Field().String())
		count := 0
		for gr.Next() {
			count++
			if count > maxLength {
				return false
			}
		}

		return true

	})

	v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
		_, err := bson.ObjectIDFromHex(fl.Field().String())
		return err == nil
	})

	return v

}
