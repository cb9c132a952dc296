package repository

import (
	"context"
	"fmt"

	"github.com/edulink-id/parent-portal-api/internal/models"
	"github.com/edulink-id/parent-portal-api/internal/store"
)

const classesCollection = "classes"

// StudentRepository locates student documents inside their class partitions.
// The store keeps no global student index, so lookups scan class partitions
// in order and stop at the first hit: a student is assumed to belong to
// exactly one class.
type StudentRepository struct {
	store store.Store
}

// NewStudentRepository creates the repository.
func NewStudentRepository(s store.Store) *StudentRepository {
	return &StudentRepository{store: s}
}

// Classes lists the known class partition names.
func (r *StudentRepository) Classes(ctx context.Context) ([]string, error) {
	docs, err := r.store.List(ctx, classesCollection)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(docs))
	for _, doc := range docs {
		names = append(names, doc.ID)
	}
	return names, nil
}

// FindByIdentity scans class partitions for a student keyed by the identity.
// Cost is linear in the number of classes. Returns store.ErrNotFound when no
// partition holds the identity.
func (r *StudentRepository) FindByIdentity(ctx context.Context, identity string) (*models.Student, error) {
	if identity == "" {
		return nil, store.ErrNotFound
	}
	classes, err := r.Classes(ctx)
	if err != nil {
		return nil, err
	}
	for _, className := range classes {
		doc, err := r.store.Get(ctx, studentsCollection(className), identity)
		if err != nil {
			if err == store.ErrNotFound {
				continue
			}
			return nil, fmt.Errorf("scan class %s: %w", className, err)
		}
		return parseStudent(className, *doc), nil
	}
	return nil, store.ErrNotFound
}

// Get loads one student from a known class partition.
func (r *StudentRepository) Get(ctx context.Context, className, id string) (*models.Student, error) {
	doc, err := r.store.Get(ctx, studentsCollection(className), id)
	if err != nil {
		return nil, err
	}
	return parseStudent(className, *doc), nil
}

func studentsCollection(className string) string {
	return store.ChildCollection(classesCollection, className, "students")
}

func parseStudent(className string, doc store.Document) *models.Student {
	student := &models.Student{
		ID:        doc.ID,
		Name:      doc.String("name"),
		ClassName: className,
	}
	if profile, ok := doc.Data["profile"].(map[string]interface{}); ok {
		student.Profile = profile
	}
	if rawGrades, ok := doc.Data["grades"].([]interface{}); ok {
		student.Grades = parseGrades(rawGrades)
	}
	return student
}

func parseGrades(raw []interface{}) []models.Grade {
	grades := make([]models.Grade, 0, len(raw))
	for _, item := range raw {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		grade := models.Grade{Subjects: map[string]string{}}
		if v, ok := entry["examName"].(string); ok {
			grade.ExamName = v
		}
		if v, ok := entry["date"].(string); ok {
			grade.Date = v
		}
		if subjects, ok := entry["subjects"].(map[string]interface{}); ok {
			for name, score := range subjects {
				grade.Subjects[name] = fmt.Sprint(score)
			}
		}
		grades = append(grades, grade)
	}
	return grades
}
