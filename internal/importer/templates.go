package importer

import (
	"encoding/csv"
	"fmt"
	"strings"
)

// templateOrder is the order reported to clients as availableTypes.
var templateOrder = []string{
	TypeAcademicTerms,
	TypePrograms,
	TypeTimeSlots,
	TypeDepartments,
	TypeClassrooms,
	TypeStudents,
	TypeFaculty,
	TypeCourses,
	TypeCoursePrerequisites,
	TypeStudentEnrollments,
	TypeCourseAssignments,
}

var templates = map[string]string{
	TypeAcademicTerms: "Name,Start Date,End Date,Academic Year,Status\n" +
		"Fall 2024,15-08-2024,20-12-2024,2024-25,active\n" +
		"Spring 2025,15-01-2025,15-05-2025,2024-25,upcoming\n" +
		"Summer 2025,01-06-2025,31-07-2025,2024-25,upcoming",

	TypePrograms: "Code,Name,Department Code,Duration Years,Total Semesters,Description\n" +
		"CSE-BTECH,B.Tech Computer Science and Engineering,CSE,4,8,Four year undergraduate program\n" +
		"ECE-BTECH,B.Tech Electronics and Communication,ECE,4,8,Four year undergraduate program",

	TypeTimeSlots: "Slot Name,Start Time,End Time,Duration Minutes,Slot Type,Is Active\n" +
		"Period 1,09:00:00,10:00:00,60,lecture,true\n" +
		"Period 2,10:15:00,11:15:00,60,lecture,true\n" +
		"Lunch Break,12:30:00,13:30:00,60,lunch,true",

	TypeDepartments: "Code,Name,Description,Head of Department Email\n" +
		"CSE,Computer Science and Engineering,Department of Computer Science and Engineering,hod.cse@university.edu\n" +
		"ECE,Electronics and Communication Engineering,Department of Electronics and Communication,hod.ece@university.edu",

	TypeClassrooms: "Room Code,Building,Floor,Capacity,Type,Equipment,Is Available\n" +
		"C101,Main Building,1,50,Class,\"Projector;Whiteboard;AC\",true\n" +
		"LB1,Lab Building,1,30,Lab,\"Computers;Projector;AC\",true\n" +
		"LH201,Main Building,2,200,Lecture Hall,\"Projector;Audio System;AC\",true",

	TypeStudents: "Name,Student ID,Email,Program Code,Batch Name,Enrollment Year,Current Semester,Phone,Guardian Name,Guardian Phone,Address,Status\n" +
		"John Doe,2024U0001,john.doe@univ.edu,CSE-BTECH,2024-2028 CSE,2024,1,9876543210,Robert Doe,9876543211,\"123 Main St Delhi\",active\n" +
		"Jane Smith,2024U0002,jane.smith@univ.edu,ECE-BTECH,2024-2028 ECE,2024,1,9876543212,Michael Smith,9876543213,\"456 Park Ave Mumbai\",active",

	TypeFaculty: "Name,Employee ID,Email,Department Code,Designation,Phone,Qualification,Experience Years,Specialization,Working Hours Per Week,Time Preferences,Subjects Can Teach\n" +
		"Dr. John Smith,FAC001,john.smith@univ.edu,CSE,Professor,9876543220,\"PhD Computer Science\",15,\"Machine Learning;AI\",20,\"Morning;Afternoon\",\"Data Structures;Algorithms;Machine Learning\"\n" +
		"Prof. Jane Doe,FAC002,jane.doe@univ.edu,ECE,Associate Professor,9876543221,\"PhD Electronics\",12,\"Signal Processing\",18,\"Morning\",\"Digital Signal Processing;Communication Systems\"",

	TypeCourses: "Course Code,Title,Department Code,Semester,Credits,Hours Per Week,Course Type,Prerequisites,Is Elective,Description\n" +
		"CS101,Introduction to Programming,CSE,1,4,4,theory,,false,\"Basic programming concepts using C++\"\n" +
		"CS201,Data Structures,CSE,3,4,4,theory,CS101,false,\"Linear and non-linear data structures\"\n" +
		"CS301L,Data Structures Lab,CSE,3,2,3,lab,CS201,false,\"Practical implementation of data structures\"",

	TypeCoursePrerequisites: "Course Code,Prerequisite Course Code,Is Mandatory\n" +
		"CS201,CS101,true\n" +
		"CS301,CS201,true\n" +
		"CS401,CS201,true",

	TypeStudentEnrollments: "Student ID,Course Code,Academic Year,Semester,Enrollment Date,Status\n" +
		"2024U0001,CS101,2024-25,1,2024-08-15,enrolled\n" +
		"2024U0001,MATH101,2024-25,1,2024-08-15,enrolled\n" +
		"2024U0002,ECE101,2024-25,1,2024-08-15,enrolled",

	TypeCourseAssignments: "Course Code,Faculty Employee ID,Academic Year,Semester,Section,Max Students\n" +
		"CS101,FAC001,2024-25,1,A,60\n" +
		"CS101,FAC001,2024-25,1,B,60\n" +
		"ECE101,FAC002,2024-25,1,A,50",
}

// TemplateTypes returns every type that has a downloadable template.
func TemplateTypes() []string {
	out := make([]string, len(templateOrder))
	copy(out, templateOrder)
	return out
}

// Template returns the sample CSV body for the entity type.
func Template(key string) (string, bool) {
	body, ok := templates[key]
	return body, ok
}

// TemplateRows parses the sample CSV into a header row followed by records.
func TemplateRows(key string) ([][]string, error) {
	body, ok := templates[key]
	if !ok {
		return nil, fmt.Errorf("unknown template %q", key)
	}
	reader := csv.NewReader(strings.NewReader(body))
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", key, err)
	}
	return rows, nil
}
