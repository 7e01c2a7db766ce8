package repository

import "fmt"

// Record store layout.
const (
	LinksCollection       = "ltiLinks"
	GradesCollection      = "ltiGrades"
	lmsIndexCollection    = "lmsStudentIndex"
	summariesCollection   = "studentCourseSummaries"
	coursesCollection     = "courses"
	studentsCollection    = "students"
	normalizedScheduleKey = "normalizedSchedule"
	autoStatusKey         = "autoStatus"
)

func CoursePath(courseID string) string {
	return fmt.Sprintf("%s/%s", coursesCollection, courseID)
}

func StudentProfilePath(studentKey string) string {
	return fmt.Sprintf("%s/%s/profile", studentsCollection, studentKey)
}

func StudentCoursesPath(studentKey string) string {
	return fmt.Sprintf("%s/%s/courses", studentsCollection, studentKey)
}

func StudentCoursePath(studentKey, courseID string) string {
	return fmt.Sprintf("%s/%s", StudentCoursesPath(studentKey), courseID)
}

func NormalizedSchedulePath(studentKey, courseID string) string {
	return StudentCoursePath(studentKey, courseID) + "/" + normalizedScheduleKey
}

func AutoStatusPath(studentKey, courseID string) string {
	return StudentCoursePath(studentKey, courseID) + "/" + autoStatusKey
}

func SummaryPath(studentKey, courseID string) string {
	return fmt.Sprintf("%s/%s_%s", summariesCollection, studentKey, courseID)
}

func SummaryFieldPath(studentKey, courseID, field string) string {
	return SummaryPath(studentKey, courseID) + "/" + field
}

func LinkPath(linkID string) string {
	return fmt.Sprintf("%s/%s", LinksCollection, linkID)
}

func GradePath(gradeKey string) string {
	return fmt.Sprintf("%s/%s", GradesCollection, gradeKey)
}

func LMSIndexPath(lmsStudentID string) string {
	return fmt.Sprintf("%s/%s", lmsIndexCollection, lmsStudentID)
}

func StudentProfileFieldPath(studentKey, field string) string {
	return StudentProfilePath(studentKey) + "/" + field
}
