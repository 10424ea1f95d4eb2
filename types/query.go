package types

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type Validater interface {
	Validate() map[string]string
}

// StartInterviewParams mirrors the /start-interview multipart form.
type StartInterviewParams struct {
	CandidateName  string `form:"candidate_name"`
	JobRole        string `form:"job_role" validate:"required"`
	CompanyName    string `form:"company_name"`
	JobDescription string `form:"job_description"`
	OtherDetails   string `form:"other_details"`
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

func validateStruct(s any) map[string]string {
	if err := validate.Struct(s); err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if !ok {
			return map[string]string{"request": err.Error()}
		}
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}

func (params *StartInterviewParams) Validate() map[string]string {
	params.JobRole = strings.TrimSpace(params.JobRole)
	return validateStruct(params)
}

// JobInfo applies the form defaults for omitted fields.
func (params *StartInterviewParams) JobInfo(resumeText string) JobInfo {
	info := JobInfo{
		CandidateName:  params.CandidateName,
		JobRole:        params.JobRole,
		CompanyName:    params.CompanyName,
		JobDescription: params.JobDescription,
		OtherDetails:   params.OtherDetails,
		ResumeText:     resumeText,
	}
	if info.CandidateName == "" {
		info.CandidateName = DefaultCandidateName
	}
	if info.CompanyName == "" {
		info.CompanyName = DefaultCompanyName
	}
	if info.JobDescription == "" {
		info.JobDescription = DefaultJobDescription
	}
	return info
}
