package importer

import (
	"strings"
	"time"
	"unicode"
)

// Entity type keys accepted by the upload endpoint.
const (
	TypeAcademicTerms       = "academic_terms"
	TypeDepartments         = "departments"
	TypePrograms            = "programs"
	TypeTimeSlots           = "time_slots"
	TypeClassrooms          = "classrooms"
	TypeFaculty             = "faculty"
	TypeCourses             = "courses"
	TypeCoursePrerequisites = "course_prerequisites"
	TypeStudents            = "students"
	TypeStudentEnrollments  = "student_enrollments"
	TypeCourseAssignments   = "course_assignments"
)

// ImportOrder is the sequence in which entity files must be loaded so that every
// business-key reference resolves against rows imported earlier.
var ImportOrder = []string{
	TypeAcademicTerms,
	TypeDepartments,
	TypePrograms,
	TypeTimeSlots,
	TypeClassrooms,
	TypeFaculty,
	TypeCourses,
	TypeCoursePrerequisites,
	TypeStudents,
	TypeStudentEnrollments,
	TypeCourseAssignments,
}

var registry = map[string]*Schema{}

func register(s *Schema) {
	registry[s.Key] = s
}

// Lookup returns the schema for an entity type key.
func Lookup(key string) (*Schema, bool) {
	s, ok := registry[key]
	return s, ok
}

func today() string {
	return time.Now().Format("2006-01-02")
}

// departmentCodeFromName derives a code from the first three letters of the name.
func departmentCodeFromName(name string) string {
	letters := make([]rune, 0, 3)
	for _, r := range name {
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			continue
		}
		letters = append(letters, unicode.ToUpper(r))
		if len(letters) == 3 {
			break
		}
	}
	return string(letters)
}

func init() {
	register(&Schema{
		Key:   TypeAcademicTerms,
		Label: "academic terms",
		Table: "academic_terms",
		Fields: []Field{
			{Name: "name", Aliases: []string{"Name", "name"}, Required: true},
			{Name: "start_date", Aliases: []string{"Start Date", "start_date"}, Kind: KindDate, Required: true},
			{Name: "end_date", Aliases: []string{"End Date", "end_date"}, Kind: KindDate, Required: true},
			{Name: "academic_year", Aliases: []string{"Academic Year", "academic_year"}, Required: true},
			{Name: "status", Aliases: []string{"Status", "status"}, Default: "upcoming", Enum: []string{"active", "upcoming", "closed"}},
		},
		ConflictKey: []string{"name"},
	})

	register(&Schema{
		Key:   TypeDepartments,
		Label: "departments",
		Table: "departments",
		Fields: []Field{
			{Name: "code", Aliases: []string{"Code", "code"}},
			{Name: "name", Aliases: []string{"Name", "name", "Department"}, Required: true},
			{Name: "description", Aliases: []string{"Description", "description"}},
			{Name: "hod_email", Aliases: []string{"Head of Department Email", "hod_email", "HOD Email"}},
		},
		ConflictKey: []string{"code"},
		Prepare: func(v RawValues) {
			if v.Get("code") == "" {
				if code := departmentCodeFromName(v.Get("name")); code != "" {
					v.Set("code", code)
				}
			}
		},
	})

	register(&Schema{
		Key:   TypePrograms,
		Label: "programs",
		Table: "programs",
		Fields: []Field{
			{Name: "code", Aliases: []string{"Code", "code"}, Required: true},
			{Name: "name", Aliases: []string{"Name", "name"}, Required: true},
			{Name: "department_code", Column: SkipColumn, Aliases: []string{"Department Code", "department_code"}, Required: true},
			{Name: "duration_years", Aliases: []string{"Duration Years", "duration_years"}, Kind: KindInt, Default: "4"},
			{Name: "total_semesters", Aliases: []string{"Total Semesters", "total_semesters"}, Kind: KindInt, Default: "8"},
			{Name: "description", Aliases: []string{"Description", "description"}},
		},
		References: []Reference{
			{Field: "department_code", Column: "department_id", Target: RefDepartment},
		},
		ConflictKey: []string{"code"},
	})

	register(&Schema{
		Key:   TypeTimeSlots,
		Label: "time slots",
		Table: "time_slots",
		Fields: []Field{
			{Name: "slot_name", Aliases: []string{"Slot Name", "slot_name", "Name"}, Required: true},
			{Name: "start_time", Aliases: []string{"Start Time", "start_time"}, Kind: KindTime, Required: true},
			{Name: "end_time", Aliases: []string{"End Time", "end_time"}, Kind: KindTime, Required: true},
			{Name: "duration_minutes", Aliases: []string{"Duration Minutes", "duration_minutes"}, Kind: KindInt},
			{Name: "slot_type", Aliases: []string{"Slot Type", "slot_type", "Type"}, Default: "lecture"},
			{Name: "is_active", Aliases: []string{"Is Active", "is_active"}, Kind: KindBool, Default: "true"},
		},
		ConflictKey: []string{"slot_name"},
	})

	register(&Schema{
		Key:   TypeClassrooms,
		Label: "classrooms",
		Table: "classrooms",
		Fields: []Field{
			{Name: "room_code", Aliases: []string{"Room Code", "room_code", "Code"}, Required: true},
			{Name: "building", Aliases: []string{"Building", "building"}},
			{Name: "floor", Aliases: []string{"Floor", "floor"}, Kind: KindInt},
			{Name: "capacity", Aliases: []string{"Capacity", "capacity"}, Kind: KindInt, Required: true},
			{Name: "room_type", Aliases: []string{"Type", "Room Type", "room_type"}, Label: "room type"},
			{Name: "equipment", Aliases: []string{"Equipment", "equipment"}, Kind: KindList},
			{Name: "is_available", Aliases: []string{"Is Available", "is_available"}, Kind: KindBool, Default: "true"},
		},
		ConflictKey: []string{"room_code"},
	})

	register(&Schema{
		Key:   TypeFaculty,
		Label: "faculty",
		Table: "faculty",
		Fields: []Field{
			{Name: "name", Aliases: []string{"Name", "name"}, Required: true},
			{Name: "employee_id", Aliases: []string{"Employee ID", "employee_id"}, Required: true},
			{Name: "email", Aliases: []string{"Email", "email"}, Required: true},
			{Name: "department_code", Column: SkipColumn, Aliases: []string{"Department Code", "department_code"}, Required: true},
			{Name: "designation", Aliases: []string{"Designation", "designation"}},
			{Name: "phone", Aliases: []string{"Phone", "phone"}},
			{Name: "qualification", Aliases: []string{"Qualification", "qualification"}},
			{Name: "experience_years", Aliases: []string{"Experience Years", "experience_years"}, Kind: KindInt},
			{Name: "specialization", Aliases: []string{"Specialization", "specialization"}, Kind: KindList},
			{Name: "max_hours_per_week", Aliases: []string{"Working Hours Per Week", "Max Hours Per Week", "max_hours_per_week"}, Kind: KindInt, Default: "20"},
			{Name: "time_preferences", Aliases: []string{"Time Preferences", "time_preferences"}, Kind: KindList},
			{Name: "subjects_can_teach", Aliases: []string{"Subjects Can Teach", "subjects_can_teach"}, Kind: KindList},
		},
		References: []Reference{
			{Field: "department_code", Column: "department_id", Target: RefDepartment},
		},
		ConflictKey: []string{"employee_id"},
	})

	register(&Schema{
		Key:   TypeCourses,
		Label: "courses",
		Table: "courses",
		Fields: []Field{
			{Name: "course_code", Aliases: []string{"Course Code", "course_code", "Code"}, Required: true},
			{Name: "title", Aliases: []string{"Title", "title", "Name"}, Required: true},
			{Name: "department_code", Column: SkipColumn, Aliases: []string{"Department Code", "department_code"}, Required: true},
			{Name: "semester", Aliases: []string{"Semester", "semester"}, Kind: KindInt, Required: true},
			{Name: "credits", Aliases: []string{"Credits", "credits"}, Kind: KindInt, Required: true},
			{Name: "hours_per_week", Aliases: []string{"Hours Per Week", "hours_per_week"}, Kind: KindInt},
			{Name: "course_type", Aliases: []string{"Course Type", "course_type", "Type"}, Default: "theory", Enum: []string{"theory", "lab"}},
			{Name: "prerequisites", Column: SkipColumn, Aliases: []string{"Prerequisites", "prerequisites", "Prerequisite"}},
			{Name: "is_elective", Aliases: []string{"Is Elective", "is_elective"}, Kind: KindBool, Default: "false"},
			{Name: "description", Aliases: []string{"Description", "description"}},
		},
		References: []Reference{
			{Field: "department_code", Column: "department_id", Target: RefDepartment},
			{Field: "prerequisites", Column: "prerequisite_course_id", Target: RefCourse, Optional: true},
		},
		ConflictKey: []string{"course_code"},
		Prepare: func(v RawValues) {
			// Only the first listed prerequisite is kept on the course row;
			// the full set belongs in course_prerequisites.
			if list := SplitList(v.Get("prerequisites")); len(list) > 0 {
				v.Set("prerequisites", list[0])
			}
		},
	})

	register(&Schema{
		Key:   TypeCoursePrerequisites,
		Label: "course prerequisites",
		Table: "course_prerequisites",
		Fields: []Field{
			{Name: "course_code", Column: SkipColumn, Aliases: []string{"Course Code", "course_code"}, Required: true},
			{Name: "prerequisite_code", Column: SkipColumn, Aliases: []string{"Prerequisite Course Code", "prerequisite_course_code", "Prerequisite"}, Required: true},
			{Name: "is_mandatory", Aliases: []string{"Is Mandatory", "is_mandatory"}, Kind: KindBool, Default: "true"},
		},
		References: []Reference{
			{Field: "course_code", Column: "course_id", Target: RefCourse},
			{Field: "prerequisite_code", Column: "prerequisite_id", Target: RefCourse},
		},
		ConflictKey: []string{"course_id", "prerequisite_id"},
	})

	register(&Schema{
		Key:   TypeStudents,
		Label: "students",
		Table: "students",
		Fields: []Field{
			{Name: "name", Aliases: []string{"Name", "name"}, Required: true},
			{Name: "student_id", Aliases: []string{"Student ID", "student_id", "Roll Number"}, Required: true},
			{Name: "email", Aliases: []string{"Email", "email"}, Required: true},
			{Name: "program_code", Column: SkipColumn, Aliases: []string{"Program Code", "program_code"}, Required: true},
			// Batch membership is owned by batch generation; the column is accepted but ignored.
			{Name: "batch_name", Column: SkipColumn, Aliases: []string{"Batch Name", "batch_name"}},
			{Name: "enrollment_year", Aliases: []string{"Enrollment Year", "enrollment_year"}, Kind: KindInt, Required: true},
			{Name: "current_semester", Aliases: []string{"Current Semester", "current_semester"}, Kind: KindInt, Default: "1"},
			{Name: "phone", Aliases: []string{"Phone", "phone"}},
			{Name: "guardian_name", Aliases: []string{"Guardian Name", "guardian_name"}},
			{Name: "guardian_phone", Aliases: []string{"Guardian Phone", "guardian_phone"}},
			{Name: "address", Aliases: []string{"Address", "address"}},
			{Name: "status", Aliases: []string{"Status", "status"}, Default: "active"},
		},
		References: []Reference{
			{Field: "program_code", Column: "program_id", Target: RefProgram},
		},
		ConflictKey: []string{"student_id"},
	})

	register(&Schema{
		Key:   TypeStudentEnrollments,
		Label: "student enrollments",
		Table: "enrollments",
		Fields: []Field{
			{Name: "student_code", Column: SkipColumn, Aliases: []string{"Student ID", "student_id"}, Required: true},
			{Name: "course_code", Column: SkipColumn, Aliases: []string{"Course Code", "course_code"}, Required: true},
			{Name: "academic_year", Aliases: []string{"Academic Year", "academic_year"}, Required: true},
			{Name: "semester", Aliases: []string{"Semester", "semester"}, Kind: KindInt, Required: true},
			{Name: "enrollment_date", Aliases: []string{"Enrollment Date", "enrollment_date"}, Kind: KindDate, DefaultFunc: today},
			{Name: "status", Aliases: []string{"Status", "status"}, Default: "enrolled", Enum: []string{"enrolled", "dropped", "completed"}},
		},
		References: []Reference{
			{Field: "student_code", Column: "student_id", Target: RefStudent},
			{Field: "course_code", Column: "course_id", Target: RefCourse},
		},
		ConflictKey: []string{"student_id", "course_id", "academic_year"},
	})

	register(&Schema{
		Key:   TypeCourseAssignments,
		Label: "course assignments",
		Table: "course_assignments",
		Fields: []Field{
			{Name: "course_code", Column: SkipColumn, Aliases: []string{"Course Code", "course_code"}, Required: true},
			{Name: "faculty_employee_id", Column: SkipColumn, Aliases: []string{"Faculty Employee ID", "faculty_employee_id", "Employee ID"}, Required: true},
			{Name: "academic_year", Aliases: []string{"Academic Year", "academic_year"}, Required: true},
			{Name: "semester", Aliases: []string{"Semester", "semester"}, Kind: KindInt, Required: true},
			{Name: "section", Aliases: []string{"Section", "section"}, Default: "A"},
			{Name: "max_students", Aliases: []string{"Max Students", "max_students"}, Kind: KindInt, Default: "60"},
		},
		References: []Reference{
			{Field: "course_code", Column: "course_id", Target: RefCourse},
			{Field: "faculty_employee_id", Column: "faculty_id", Target: RefFaculty},
		},
		ConflictKey: []string{"course_id", "academic_year", "semester", "section"},
	})
}

// SupportedTypes lists the importable entity keys in dependency order.
func SupportedTypes() []string {
	out := make([]string, 0, len(ImportOrder))
	for _, key := range ImportOrder {
		if _, ok := registry[key]; ok {
			out = append(out, key)
		}
	}
	return out
}

// IsSupported reports whether key names an importable entity.
func IsSupported(key string) bool {
	_, ok := registry[strings.TrimSpace(key)]
	return ok
}
