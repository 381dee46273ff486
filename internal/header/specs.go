package header

// The alias lists below are the accumulated label variants observed
// across real Master, Clean, Roster and group workbooks. Keep them here
// as static data rather than scattering string literals through callers.

// Master is the schema of the authoritative record table.
var Master = Spec{
	{FieldFirstName, []string{"Attendee First Name", "First Name"}},
	{FieldLastName, []string{"Attendee Last Name", "Last Name"}},
	{FieldPTIN, []string{"Attendee PTIN", "PTIN"}},
	{FieldEmail, []string{"Email", "Attendee Email", "E-mail"}},
	{FieldProgram, []string{"Program Number", "Program #", "Program ID"}},
	{FieldHours, []string{"CE Hours Awarded", "CE Hours", "Hours"}},
	{FieldCompletion, []string{"Program Completion Date", "Completion Date", "Date Completed", "Completed At"}},
	{FieldGroup, []string{"Group"}},
	{FieldIssue, []string{"Reporting Issue?", "Reporting Issue"}},
	{FieldReported, []string{"Reported?", "Reported"}},
	{FieldReportedAt, []string{"Reported At"}},
	{FieldLastUpdated, []string{"Last Updated", "Updated?"}},
}

// Clean is the schema of the disposable upload-staging table.
var Clean = Spec{
	{FieldFirstName, []string{"Attendee First Name", "First Name"}},
	{FieldLastName, []string{"Attendee Last Name", "Last Name"}},
	{FieldPTIN, []string{"Attendee PTIN", "PTIN"}},
	{FieldEmail, []string{"Email"}},
	{FieldProgram, []string{"Program Number"}},
	{FieldHours, []string{"CE Hours Awarded", "CE Hours"}},
	{FieldCompletion, []string{"Program Completion Date"}},
	{FieldIssue, []string{"Reporting Issue?", "Reporting Issue"}},
}

// Roster is the schema of the attendee directory.
var Roster = Spec{
	{FieldFirstName, []string{"Attendee First Name"}},
	{FieldLastName, []string{"Attendee Last Name"}},
	{FieldPTIN, []string{"Attendee PTIN", "PTIN"}},
	{FieldEmail, []string{"Email"}},
	{FieldValid, []string{"Valid?", "Valid"}},
	{FieldGroup, []string{"Group"}},
}

// Ledger is the schema of the append-only reported-hours audit table.
var Ledger = Spec{
	{FieldFirstName, []string{"Attendee First Name"}},
	{FieldLastName, []string{"Attendee Last Name"}},
	{FieldPTIN, []string{"Attendee PTIN", "PTIN"}},
	{FieldProgram, []string{"Program Number"}},
	{FieldHours, []string{"CE Hours", "CE Hours Awarded"}},
	{FieldEmail, []string{"Email"}},
	{FieldCompletion, []string{"Program Completion Date"}},
	{FieldDateReported, []string{"Date Reported"}},
}

// GroupDest is the tolerant schema accepted on externally-owned group
// destination tables.
var GroupDest = Spec{
	{FieldFirstName, []string{"Attendee First Name", "First Name", "FName"}},
	{FieldLastName, []string{"Attendee Last Name", "Last Name", "LName"}},
	{FieldPTIN, []string{"Attendee PTIN", "PTIN"}},
	{FieldEmail, []string{"Email", "Attendee Email", "E-mail"}},
	{FieldProgram, []string{"Program Number", "Program #", "Program ID"}},
	{FieldProgramName, []string{"Program Name", "Course Name"}},
	{FieldHours, []string{"CE Hours Awarded", "CE Hours", "Hours", "CE Hour(s)"}},
	{FieldCompletion, []string{"Program Completion Date", "Completion Date", "Completed At", "Date Completed"}},
	{FieldIssue, []string{"Reporting Issue?", "Reporting Issue"}},
	{FieldReported, []string{"Reported?", "Reported"}},
	{FieldReportedAt, []string{"Reported At", "Date Reported"}},
}

// GroupCatalog is the schema of the group configuration table.
var GroupCatalog = Spec{
	{FieldGroupID, []string{"Group ID", "ID"}},
	{FieldGroupName, []string{"Group Name", "Group"}},
	{FieldLocation, []string{"Spreadsheet URL", "Sheet URL", "URL", "Workbook", "Workbook Path"}},
}

// Courses is the schema of the program catalog lookup table.
var Courses = Spec{
	{FieldProgram, []string{"Program Number"}},
	{FieldProgramName, []string{"Program Name"}},
}

// SysIssues is the schema of the externally-ingested issue feed.
var SysIssues = Spec{
	{FieldFirstName, []string{"Attendee First Name"}},
	{FieldLastName, []string{"Attendee Last Name"}},
	{FieldPTIN, []string{"PTIN", "Attendee PTIN"}},
	{FieldProgram, []string{"Program Number"}},
	{FieldHours, []string{"CE Hours Awarded"}},
	{FieldCompletion, []string{"Program Completion Date"}},
	{FieldIssue, []string{"Status"}},
}
