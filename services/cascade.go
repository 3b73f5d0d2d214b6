package services

import (
	"github.com/d-valsamis/student-portal/model"
	"gorm.io/gorm"
)

// purgeFiles deletes the file rows of the given owners and returns them so
// their blobs can be removed once the transaction commits.
func purgeFiles(tx *gorm.DB, ownerType string, ownerIDs []uint) ([]model.StoredFile, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}

	var files []model.StoredFile
	scope := tx.Where("owner_type = ? AND owner_id IN ?", ownerType, ownerIDs)
	if err := scope.Find(&files).Error; err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}
	if err := tx.Where("owner_type = ? AND owner_id IN ?", ownerType, ownerIDs).Delete(&model.StoredFile{}).Error; err != nil {
		return nil, err
	}
	return files, nil
}

// deleteAssignments removes assignments with their submissions, grades and files.
func deleteAssignments(tx *gorm.DB, ids []uint) ([]model.StoredFile, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var submissionIDs []uint
	if err := tx.Model(&model.Submission{}).Where("assignment_id IN ?", ids).Pluck("id", &submissionIDs).Error; err != nil {
		return nil, err
	}

	removed, err := purgeFiles(tx, model.OwnerSubmission, submissionIDs)
	if err != nil {
		return nil, err
	}
	pdfs, err := purgeFiles(tx, model.OwnerAssignment, ids)
	if err != nil {
		return nil, err
	}
	removed = append(removed, pdfs...)

	if err := tx.Where("assignment_id IN ?", ids).Delete(&model.Grade{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("assignment_id IN ?", ids).Delete(&model.Submission{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("id IN ?", ids).Delete(&model.Assignment{}).Error; err != nil {
		return nil, err
	}
	return removed, nil
}

// deleteClasses removes classes with their notes, attendance and files.
func deleteClasses(tx *gorm.DB, ids []uint) ([]model.StoredFile, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var noteIDs []uint
	if err := tx.Model(&model.Note{}).Where("class_id IN ?", ids).Pluck("id", &noteIDs).Error; err != nil {
		return nil, err
	}

	removed, err := purgeFiles(tx, model.OwnerNote, noteIDs)
	if err != nil {
		return nil, err
	}
	classFiles, err := purgeFiles(tx, model.OwnerClass, ids)
	if err != nil {
		return nil, err
	}
	removed = append(removed, classFiles...)

	if err := tx.Where("class_id IN ?", ids).Delete(&model.Note{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("class_id IN ?", ids).Delete(&model.Attendance{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("id IN ?", ids).Delete(&model.Class{}).Error; err != nil {
		return nil, err
	}
	return removed, nil
}
