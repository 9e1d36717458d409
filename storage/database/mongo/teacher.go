package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/teacher"
)

type teacherDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Name          string             `bson:"name"`
	Email         string             `bson:"email"`
	Phone         string             `bson:"phone"`
	EmployeeID    string             `bson:"employeeId"`
	BranchID      string             `bson:"branchId"`
	Subjects      []string           `bson:"subjects"`
	Qualification string             `bson:"qualification"`
	Experience    string             `bson:"experience"`
	Gender        string             `bson:"gender"`
	Salary        float64            `bson:"salary"`
	JoiningDate   *time.Time         `bson:"joiningDate,omitempty"`
	Address       string             `bson:"address"`
	UserID        string             `bson:"userId"`
	IsActive      bool               `bson:"isActive"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

func newTeacherDoc(t teacher.Teacher) teacherDoc {
	return teacherDoc{
		ID:            objectID(t.ID),
		Name:          t.Name,
		Email:         t.Email,
		Phone:         t.Phone,
		EmployeeID:    t.EmployeeID,
		BranchID:      t.BranchID,
		Subjects:      t.Subjects,
		Qualification: t.Qualification,
		Experience:    t.Experience,
		Gender:        t.Gender,
		Salary:        t.Salary,
		JoiningDate:   t.JoiningDate,
		Address:       t.Address,
		UserID:        t.UserID,
		IsActive:      t.IsActive,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func (d teacherDoc) toTeacher() teacher.Teacher {
	t := teacher.Teacher{
		ID:            d.ID.Hex(),
		Name:          d.Name,
		Email:         d.Email,
		Phone:         d.Phone,
		EmployeeID:    d.EmployeeID,
		BranchID:      d.BranchID,
		Subjects:      d.Subjects,
		Qualification: d.Qualification,
		Experience:    d.Experience,
		Gender:        d.Gender,
		Salary:        d.Salary,
		Address:       d.Address,
		UserID:        d.UserID,
		IsActive:      d.IsActive,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
	if d.JoiningDate != nil {
		jd := d.JoiningDate.UTC()
		t.JoiningDate = &jd
	}
	if t.Subjects == nil {
		t.Subjects = []string{}
	}
	return t
}

type teacherRepository struct {
	repo
}

var _ teacher.Repository = (*teacherRepository)(nil)

func NewTeacherRepository(db *mongo.Database, conf *core.Config) teacher.Repository {
	return &teacherRepository{repo: newRepo(db, TeachersColl, conf)}
}

func (r *teacherRepository) Create(ctx context.Context, t teacher.Teacher) (teacher.Teacher, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	doc := newTeacherDoc(t)
	doc.ID = primitive.NewObjectID()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return teacher.Teacher{}, teacherDupErr(err, "inserting teacher")
	}
	return doc.toTeacher(), nil
}

func (r *teacherRepository) Get(ctx context.Context, id string) (teacher.Teacher, error) {
	var doc teacherDoc
	if err := r.findOne(ctx, bson.M{"_id": objectID(id)}, &doc, teacher.ErrNotFound); err != nil {
		return teacher.Teacher{}, err
	}
	return doc.toTeacher(), nil
}

func (r *teacherRepository) GetByUserID(ctx context.Context, userID string) (teacher.Teacher, error) {
	var doc teacherDoc
	if err := r.findOne(ctx, bson.M{"userId": userID}, &doc, teacher.ErrNotFound); err != nil {
		return teacher.Teacher{}, err
	}
	return doc.toTeacher(), nil
}

func (r *teacherRepository) Query(ctx context.Context, filter teacher.QueryFilter, orderings []core.DBOrdering) ([]teacher.Teacher, error) {
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

	var docs []teacherDoc
	if err := r.find(ctx, query, sortBy(orderings, teacher.OrderFields), &docs); err != nil {
		return nil, err
	}
	teachers := make([]teacher.Teacher, 0, len(docs))
	for _, doc := range docs {
		teachers = append(teachers, doc.toTeacher())
	}
	return teachers, nil
}

func (r *teacherRepository) Update(ctx context.Context, t teacher.Teacher) (teacher.Teacher, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	doc := newTeacherDoc(t)
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return teacher.Teacher{}, teacherDupErr(err, "updating teacher")
	}
	if res.MatchedCount == 0 {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	return doc.toTeacher(), nil
}

func (r *teacherRepository) CountByBranch(ctx context.Context) (map[string]int, error) {
	return r.countByBranch(ctx)
}

func teacherDupErr(err error, msg string) error {
	switch dupKey(err, "employeeId", "email") {
	case "":
		return errors.Wrap(err, msg)
	case "employeeId":
		return teacher.ErrEmployeeIDExists
	default:
		return teacher.ErrEmailExists
	}
}
