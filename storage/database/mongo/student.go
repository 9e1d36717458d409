package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/student"
)

type studentDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Name          string             `bson:"name"`
	Email         string             `bson:"email"`
	Phone         string             `bson:"phone"`
	RollNo        string             `bson:"rollNo"`
	AdmissionNo   string             `bson:"admissionNo"`
	BranchID      string             `bson:"branchId"`
	Semester      int                `bson:"semester"`
	AcademicYear  string             `bson:"academicYear"`
	Gender        string             `bson:"gender"`
	DOB           *time.Time         `bson:"dob,omitempty"`
	Address       string             `bson:"address"`
	GuardianName  string             `bson:"guardianName"`
	GuardianPhone string             `bson:"guardianPhone"`
	Subjects      []string           `bson:"subjects"`
	UserID        string             `bson:"userId"`
	IsActive      bool               `bson:"isActive"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

func newStudentDoc(s student.Student) studentDoc {
	return studentDoc{
		ID:            objectID(s.ID),
		Name:          s.Name,
		Email:         s.Email,
		Phone:         s.Phone,
		RollNo:        s.RollNo,
		AdmissionNo:   s.AdmissionNo,
		BranchID:      s.BranchID,
		Semester:      s.Semester,
		AcademicYear:  s.AcademicYear,
		Gender:        s.Gender,
		DOB:           s.DOB,
		Address:       s.Address,
		GuardianName:  s.GuardianName,
		GuardianPhone: s.GuardianPhone,
		Subjects:      s.Subjects,
		UserID:        s.UserID,
		IsActive:      s.IsActive,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func (d studentDoc) toStudent() student.Student {
	s := student.Student{
		ID:            d.ID.Hex(),
		Name:          d.Name,
		Email:         d.Email,
		Phone:         d.Phone,
		RollNo:        d.RollNo,
		AdmissionNo:   d.AdmissionNo,
		BranchID:      d.BranchID,
		Semester:      d.Semester,
		AcademicYear:  d.AcademicYear,
		Gender:        d.Gender,
		Address:       d.Address,
		GuardianName:  d.GuardianName,
		GuardianPhone: d.GuardianPhone,
		Subjects:      d.Subjects,
		UserID:        d.UserID,
		IsActive:      d.IsActive,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
	if d.DOB != nil {
		dob := d.DOB.UTC()
		s.DOB = &dob
	}
	if s.Subjects == nil {
		s.Subjects = []string{}
	}
	return s
}

type studentRepository struct {
	repo
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *mongo.Database, conf *core.Config) student.Repository {
	return &studentRepository{repo: newRepo(db, StudentsColl, conf)}
}

func (r *studentRepository) Create(ctx context.Context, s student.Student) (student.Student, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	doc := newStudentDoc(s)
	doc.ID = primitive.NewObjectID()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return student.Student{}, studentDupErr(err, "inserting student")
	}
	return doc.toStudent(), nil
}

func (r *studentRepository) Get(ctx context.Context, id string) (student.Student, error) {
	return r.get(ctx, bson.M{"_id": objectID(id)})
}

func (r *studentRepository) GetByUserID(ctx context.Context, userID string) (student.Student, error) {
	return r.get(ctx, bson.M{"userId": userID})
}

func (r *studentRepository) GetByRollNo(ctx context.Context, rollNo string) (student.Student, error) {
	return r.get(ctx, bson.M{"rollNo": rollNo})
}

func (r *studentRepository) get(ctx context.Context, filter bson.M) (student.Student, error) {
	var doc studentDoc
	if err := r.findOne(ctx, filter, &doc, student.ErrNotFound); err != nil {
		return student.Student{}, err
	}
	return doc.toStudent(), nil
}

func (r *studentRepository) Query(ctx context.Context, filter student.QueryFilter, orderings []core.DBOrdering) ([]student.Student, error) {
	query := bson.M{}
	if !filter.IncludeInactive {
		query["isActive"] = true
	}
	if filter.BranchID != "" {
		query["branchId"] = filter.BranchID
	}
	if filter.Search != "" {
		query["name"] = nameRegex(filter.Search)
	}
	if filter.IDs != nil {
		query["_id"] = bson.M{"$in": objectIDs(filter.IDs)}
	}

	var docs []studentDoc
	if err := r.find(ctx, query, sortBy(orderings, student.OrderFields), &docs); err != nil {
		return nil, err
	}
	students := make([]student.Student, 0, len(docs))
	for _, doc := range docs {
		students = append(students, doc.toStudent())
	}
	return students, nil
}

func (r *studentRepository) Update(ctx context.Context, s student.Student) (student.Student, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	doc := newStudentDoc(s)
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return student.Student{}, studentDupErr(err, "updating student")
	}
	if res.MatchedCount == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return doc.toStudent(), nil
}

func (r *studentRepository) CountByBranch(ctx context.Context) (map[string]int, error) {
	return r.countByBranch(ctx)
}

func studentDupErr(err error, msg string) error {
	switch dupKey(err, "rollNo", "email") {
	case "":
		return errors.Wrap(err, msg)
	case "rollNo":
		return student.ErrRollNoExists
	default:
		return student.ErrEmailExists
	}
}
