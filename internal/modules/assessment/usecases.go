package assessment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ficharisk/ficharisk-backend/internal/data/repos"
	types "github.com/ficharisk/ficharisk-backend/internal/domain"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/dbctx"
	apperrors "github.com/ficharisk/ficharisk-backend/internal/pkg/errors"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/logger"
)

type UsecasesDeps struct {
	DB  *gorm.DB
	Log *logger.Logger

	Assessments   repos.AssessmentRepo
	Details       repos.DetailRepo
	FamilyMembers repos.FamilyMemberRepo
	ChangeLog     repos.ChangeLogRepo

	Dimensions   repos.DimensionRepo
	Questions    repos.QuestionRepo
	Options      repos.OptionRepo
	Institutions repos.InstitutionRepo
	Users        repos.UserRepo
}

type Usecases struct {
	deps UsecasesDeps
}

func New(deps UsecasesDeps) Usecases {
	if deps.Log != nil {
		deps.Log = deps.Log.With("usecases", "assessment")
	}
	return Usecases{deps: deps}
}

// HeaderInput carries every non-answer field of the assessment header.
// Submit and Edit both take the full header; Edit diffs it against the
// stored record field by field.
type HeaderInput struct {
	InstitutionID uuid.UUID

	SubjectFirstNames string
	SubjectLastNames  string
	DocumentNumber    string
	BirthDate         time.Time
	Age               int
	Sex               string
	EducationLevel    string

	Address      string
	DepartmentID *string
	ProvinceID   *string
	DistrictID   *string
	Phone        string
	Email        string

	EmergencyName         string
	EmergencyPhone        string
	EmergencyRelationship string

	HouseholdHead string
	HouseholdSize int
	FamilyNotes   string

	Conclusion       string
	InterventionPlan string
}

type FamilyMemberInput struct {
	Names          string
	Relationship   string
	Age            int
	Sex            string
	MaritalStatus  string
	EducationLevel string
	Occupation     string
	MonthlyIncome  float64
}

type SubmitInput struct {
	Header        HeaderInput
	Answers       map[uuid.UUID]uuid.UUID // question -> selected option
	FamilyMembers []FamilyMemberInput
}

type EditInput struct {
	Header HeaderInput
	// Answers only needs the questions whose selection changed; questions
	// absent from the map keep their frozen answer untouched.
	Answers map[uuid.UUID]uuid.UUID
	// FamilyMembers nil means leave the family table alone; non-nil
	// replaces it wholesale.
	FamilyMembers *[]FamilyMemberInput
}

func (in HeaderInput) validate() error {
	v := apperrors.NewValidation()
	if in.InstitutionID == uuid.Nil {
		v.Add("institution_id", "required")
	}
	if in.SubjectFirstNames == "" {
		v.Add("subject_first_names", "required")
	}
	if in.SubjectLastNames == "" {
		v.Add("subject_last_names", "required")
	}
	if len(in.DocumentNumber) != 8 {
		v.Add("document_number", "must be 8 digits")
	}
	return v.Err()
}

// Submit records a complete assessment: header, frozen answers, family
// table and the computed result block, all in one transaction. Option
// points are copied onto the detail rows at this moment and never read
// from the master catalog again.
func (u Usecases) Submit(ctx context.Context, actor types.Actor, in SubmitInput) (uuid.UUID, error) {
	if actor.ID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("submit assessment: %w", apperrors.ErrUnauthorized)
	}
	if err := in.Header.validate(); err != nil {
		return uuid.Nil, err
	}
	if len(in.Answers) == 0 {
		return uuid.Nil, apperrors.Validation("answers", "at least one answer is required")
	}

	assessmentID := uuid.New()
	err := u.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		inst, err := u.deps.Institutions.GetByID(dbc, in.Header.InstitutionID)
		if err != nil {
			return fmt.Errorf("load institution: %w", err)
		}
		if inst == nil {
			return apperrors.Validation("institution_id", "institution does not exist")
		}

		details, scores, err := u.freezeAnswers(dbc, assessmentID, in.Answers)
		if err != nil {
			return err
		}

		a := &types.Assessment{
			ID:           assessmentID,
			RecordedByID: actor.ID,
		}
		applyHeader(a, in.Header, nil)
		Summarize(scores).apply(a)

		if err := u.deps.Assessments.Create(dbc, a); err != nil {
			return fmt.Errorf("create assessment: %w", err)
		}
		if err := u.deps.Details.Create(dbc, details); err != nil {
			return fmt.Errorf("create details: %w", err)
		}
		if len(in.FamilyMembers) > 0 {
			members := buildFamilyMembers(assessmentID, in.FamilyMembers)
			if err := u.deps.FamilyMembers.Create(dbc, members); err != nil {
				return fmt.Errorf("create family members: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	u.deps.Log.Info("assessment submitted", "assessment_id", assessmentID, "actor_id", actor.ID)
	return assessmentID, nil
}

// Edit applies header changes, answer changes and an optional family
// table replacement, recomputes the result block from the stored frozen
// points, and appends exactly one change-log entry describing what
// changed. An edit that changes nothing writes nothing.
func (u Usecases) Edit(ctx context.Context, actor types.Actor, id uuid.UUID, in EditInput) error {
	if err := in.Header.validate(); err != nil {
		return err
	}
	var changed bool
	err := u.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		a, err := u.deps.Assessments.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load assessment: %w", err)
		}
		if a == nil {
			return fmt.Errorf("assessment %s: %w", id, apperrors.ErrNotFound)
		}
		if err := u.authorize(dbc, actor, a.RecordedByID); err != nil {
			return err
		}
		if in.Header.InstitutionID != a.InstitutionID {
			inst, err := u.deps.Institutions.GetByID(dbc, in.Header.InstitutionID)
			if err != nil {
				return fmt.Errorf("load institution: %w", err)
			}
			if inst == nil {
				return apperrors.Validation("institution_id", "institution does not exist")
			}
		}

		var deltas deltaRecorder
		applyHeader(a, in.Header, &deltas)

		if err := u.applyAnswerChanges(dbc, a, in.Answers, &deltas); err != nil {
			return err
		}
		if in.FamilyMembers != nil {
			if err := u.replaceFamilyMembers(dbc, a.ID, *in.FamilyMembers, &deltas); err != nil {
				return err
			}
		}
		if deltas.empty() {
			return nil
		}
		changed = true

		// Recompute from every stored frozen point, changed or not.
		scores, err := u.scoredAnswers(dbc, a.ID)
		if err != nil {
			return err
		}
		Summarize(scores).apply(a)
		if err := u.deps.Assessments.Update(dbc, a); err != nil {
			return fmt.Errorf("update assessment: %w", err)
		}

		raw, err := deltas.json()
		if err != nil {
			return err
		}
		entry := &types.ChangeLogEntry{
			ID:           uuid.New(),
			AssessmentID: a.ID,
			EditorID:     actor.ID,
			Action:       "data edit",
			Deltas:       raw,
		}
		if err := u.deps.ChangeLog.Create(dbc, entry); err != nil {
			return fmt.Errorf("append change log: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if changed {
		u.deps.Log.Info("assessment edited", "assessment_id", id, "actor_id", actor.ID)
	}
	return nil
}

// Get returns the full snapshot: header, details with their catalog rows,
// family table and change log.
func (u Usecases) Get(ctx context.Context, actor types.Actor, id uuid.UUID) (*types.Assessment, error) {
	dbc := dbctx.New(ctx)
	a, err := u.deps.Assessments.GetFull(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load assessment: %w", err)
	}
	if a == nil {
		return nil, fmt.Errorf("assessment %s: %w", id, apperrors.ErrNotFound)
	}
	if err := u.authorize(dbc, actor, a.RecordedByID); err != nil {
		return nil, err
	}
	return a, nil
}

// ChangeLog lists the edit history newest first.
func (u Usecases) ChangeLog(ctx context.Context, actor types.Actor, id uuid.UUID) ([]*types.ChangeLogEntry, error) {
	dbc := dbctx.New(ctx)
	a, err := u.deps.Assessments.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load assessment: %w", err)
	}
	if a == nil {
		return nil, fmt.Errorf("assessment %s: %w", id, apperrors.ErrNotFound)
	}
	if err := u.authorize(dbc, actor, a.RecordedByID); err != nil {
		return nil, err
	}
	return u.deps.ChangeLog.GetByAssessment(dbc, id)
}

// authorize checks whether the actor may touch a case recorded by the
// given user: their own case, a team member's case, or anything when the
// role grants both scopes.
func (u Usecases) authorize(dbc dbctx.Context, actor types.Actor, recordedByID uuid.UUID) error {
	if actor.Can(types.CapViewOwnCases) && recordedByID == actor.ID {
		return nil
	}
	if actor.Can(types.CapViewTeamCases) {
		if actor.Role == types.RoleAdmin {
			return nil
		}
		recorder, err := u.deps.Users.GetByID(dbc, recordedByID)
		if err != nil {
			return fmt.Errorf("load recorder: %w", err)
		}
		if recorder != nil && recorder.SupervisorID != nil && *recorder.SupervisorID == actor.ID {
			return nil
		}
	}
	return fmt.Errorf("case access: %w", apperrors.ErrUnauthorized)
}

// freezeAnswers validates the answer map against the catalog and turns
// it into detail rows with points copied from the selected options.
func (u Usecases) freezeAnswers(dbc dbctx.Context, assessmentID uuid.UUID, answers map[uuid.UUID]uuid.UUID) ([]*types.AssessmentDetail, []ScoredAnswer, error) {
	positions, err := u.dimensionPositions(dbc)
	if err != nil {
		return nil, nil, err
	}
	details := make([]*types.AssessmentDetail, 0, len(answers))
	scores := make([]ScoredAnswer, 0, len(answers))
	for questionID, optionID := range answers {
		q, err := u.deps.Questions.GetByID(dbc, questionID)
		if err != nil {
			return nil, nil, fmt.Errorf("load question: %w", err)
		}
		if q == nil {
			return nil, nil, apperrors.Validation("answers", fmt.Sprintf("question %s does not exist", questionID))
		}
		opt, err := u.deps.Options.GetByID(dbc, optionID)
		if err != nil {
			return nil, nil, fmt.Errorf("load option: %w", err)
		}
		if opt == nil || opt.QuestionID != questionID {
			return nil, nil, apperrors.Validation("answers", fmt.Sprintf("option %s does not belong to question %s", optionID, questionID))
		}
		details = append(details, &types.AssessmentDetail{
			ID:           uuid.New(),
			AssessmentID: assessmentID,
			QuestionID:   questionID,
			OptionID:     optionID,
			FrozenPoints: opt.Points,
		})
		scores = append(scores, ScoredAnswer{
			DimensionPosition: positions[q.DimensionID],
			Points:            opt.Points,
		})
	}
	return details, scores, nil
}

// applyAnswerChanges re-freezes only the answers whose selection actually
// changed, recording one delta line per changed question.
func (u Usecases) applyAnswerChanges(dbc dbctx.Context, a *types.Assessment, answers map[uuid.UUID]uuid.UUID, deltas *deltaRecorder) error {
	if len(answers) == 0 {
		return nil
	}
	existing, err := u.deps.Details.GetByAssessment(dbc, a.ID)
	if err != nil {
		return fmt.Errorf("load details: %w", err)
	}
	byQuestion := make(map[uuid.UUID]*types.AssessmentDetail, len(existing))
	for _, d := range existing {
		byQuestion[d.QuestionID] = d
	}
	for questionID, optionID := range answers {
		d, ok := byQuestion[questionID]
		if !ok {
			return apperrors.Validation("answers", fmt.Sprintf("question %s was not part of this assessment", questionID))
		}
		if d.OptionID == optionID {
			continue
		}
		q, err := u.deps.Questions.GetByID(dbc, questionID)
		if err != nil {
			return fmt.Errorf("load question: %w", err)
		}
		oldOpt, err := u.deps.Options.GetByID(dbc, d.OptionID)
		if err != nil {
			return fmt.Errorf("load old option: %w", err)
		}
		newOpt, err := u.deps.Options.GetByID(dbc, optionID)
		if err != nil {
			return fmt.Errorf("load option: %w", err)
		}
		if newOpt == nil || newOpt.QuestionID != questionID {
			return apperrors.Validation("answers", fmt.Sprintf("option %s does not belong to question %s", optionID, questionID))
		}
		oldText := d.OptionID.String()
		if oldOpt != nil {
			oldText = oldOpt.Text
		}
		label := fmt.Sprintf("answer %q", q.Statement)
		deltas.add(label, oldText, newOpt.Text)

		d.OptionID = newOpt.ID
		d.FrozenPoints = newOpt.Points
		if err := u.deps.Details.Update(dbc, d); err != nil {
			return fmt.Errorf("update detail: %w", err)
		}
	}
	return nil
}

func (u Usecases) replaceFamilyMembers(dbc dbctx.Context, assessmentID uuid.UUID, in []FamilyMemberInput, deltas *deltaRecorder) error {
	existing, err := u.deps.FamilyMembers.GetByAssessment(dbc, assessmentID)
	if err != nil {
		return fmt.Errorf("load family members: %w", err)
	}
	if familyUnchanged(existing, in) {
		return nil
	}
	if err := u.deps.FamilyMembers.DeleteByAssessment(dbc, assessmentID); err != nil {
		return fmt.Errorf("clear family members: %w", err)
	}
	if len(in) > 0 {
		if err := u.deps.FamilyMembers.Create(dbc, buildFamilyMembers(assessmentID, in)); err != nil {
			return fmt.Errorf("create family members: %w", err)
		}
	}
	deltas.num("family members", len(existing), len(in))
	if len(existing) == len(in) {
		deltas.add("family members", "previous rows", "updated rows")
	}
	return nil
}

// scoredAnswers rebuilds the scoring input from the stored details.
func (u Usecases) scoredAnswers(dbc dbctx.Context, assessmentID uuid.UUID) ([]ScoredAnswer, error) {
	positions, err := u.dimensionPositions(dbc)
	if err != nil {
		return nil, err
	}
	details, err := u.deps.Details.GetByAssessment(dbc, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("load details: %w", err)
	}
	scores := make([]ScoredAnswer, 0, len(details))
	for _, d := range details {
		q, err := u.deps.Questions.GetByID(dbc, d.QuestionID)
		if err != nil {
			return nil, fmt.Errorf("load question: %w", err)
		}
		pos := 0
		if q != nil {
			pos = positions[q.DimensionID]
		}
		scores = append(scores, ScoredAnswer{DimensionPosition: pos, Points: d.FrozenPoints})
	}
	return scores, nil
}

func (u Usecases) dimensionPositions(dbc dbctx.Context) (map[uuid.UUID]int, error) {
	dims, err := u.deps.Dimensions.List(dbc)
	if err != nil {
		return nil, fmt.Errorf("list dimensions: %w", err)
	}
	positions := make(map[uuid.UUID]int, len(dims))
	for _, d := range dims {
		positions[d.ID] = d.Position
	}
	return positions, nil
}

func buildFamilyMembers(assessmentID uuid.UUID, in []FamilyMemberInput) []*types.FamilyMember {
	members := make([]*types.FamilyMember, 0, len(in))
	for _, m := range in {
		members = append(members, &types.FamilyMember{
			ID:             uuid.New(),
			AssessmentID:   assessmentID,
			Names:          m.Names,
			Relationship:   m.Relationship,
			Age:            m.Age,
			Sex:            m.Sex,
			MaritalStatus:  m.MaritalStatus,
			EducationLevel: m.EducationLevel,
			Occupation:     m.Occupation,
			MonthlyIncome:  m.MonthlyIncome,
		})
	}
	return members
}

func familyUnchanged(existing []*types.FamilyMember, in []FamilyMemberInput) bool {
	if len(existing) != len(in) {
		return false
	}
	for i, m := range existing {
		n := in[i]
		if m.Names != n.Names || m.Relationship != n.Relationship || m.Age != n.Age ||
			m.Sex != n.Sex || m.MaritalStatus != n.MaritalStatus ||
			m.EducationLevel != n.EducationLevel || m.Occupation != n.Occupation ||
			m.MonthlyIncome != n.MonthlyIncome {
			return false
		}
	}
	return true
}

// applyHeader writes the header input onto the record, recording a delta
// line for every field that changed. deltas may be nil on first write.
func applyHeader(a *types.Assessment, in HeaderInput, deltas *deltaRecorder) {
	if deltas == nil {
		deltas = &deltaRecorder{}
	}
	if a.InstitutionID != in.InstitutionID {
		deltas.add("institution", a.InstitutionID, in.InstitutionID)
	}
	a.InstitutionID = in.InstitutionID

	deltas.str("first names", a.SubjectFirstNames, in.SubjectFirstNames)
	a.SubjectFirstNames = in.SubjectFirstNames
	deltas.str("last names", a.SubjectLastNames, in.SubjectLastNames)
	a.SubjectLastNames = in.SubjectLastNames
	deltas.str("document number", a.DocumentNumber, in.DocumentNumber)
	a.DocumentNumber = in.DocumentNumber
	deltas.date("birth date", a.BirthDate, in.BirthDate)
	a.BirthDate = in.BirthDate
	deltas.num("age", a.Age, in.Age)
	a.Age = in.Age
	deltas.str("sex", a.Sex, in.Sex)
	a.Sex = in.Sex
	deltas.str("education level", a.EducationLevel, in.EducationLevel)
	a.EducationLevel = in.EducationLevel

	deltas.str("address", a.Address, in.Address)
	a.Address = in.Address
	deltas.strPtr("department", a.DepartmentID, in.DepartmentID)
	a.DepartmentID = in.DepartmentID
	deltas.strPtr("province", a.ProvinceID, in.ProvinceID)
	a.ProvinceID = in.ProvinceID
	deltas.strPtr("district", a.DistrictID, in.DistrictID)
	a.DistrictID = in.DistrictID
	deltas.str("phone", a.Phone, in.Phone)
	a.Phone = in.Phone
	deltas.str("email", a.Email, in.Email)
	a.Email = in.Email

	deltas.str("emergency contact", a.EmergencyName, in.EmergencyName)
	a.EmergencyName = in.EmergencyName
	deltas.str("emergency phone", a.EmergencyPhone, in.EmergencyPhone)
	a.EmergencyPhone = in.EmergencyPhone
	deltas.str("emergency relationship", a.EmergencyRelationship, in.EmergencyRelationship)
	a.EmergencyRelationship = in.EmergencyRelationship

	deltas.str("household head", a.HouseholdHead, in.HouseholdHead)
	a.HouseholdHead = in.HouseholdHead
	deltas.num("household size", a.HouseholdSize, in.HouseholdSize)
	a.HouseholdSize = in.HouseholdSize
	deltas.str("family notes", a.FamilyNotes, in.FamilyNotes)
	a.FamilyNotes = in.FamilyNotes

	deltas.str("conclusion", a.Conclusion, in.Conclusion)
	a.Conclusion = in.Conclusion
	deltas.str("intervention plan", a.InterventionPlan, in.InterventionPlan)
	a.InterventionPlan = in.InterventionPlan
}
