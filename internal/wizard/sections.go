package wizard

// FieldKind is the value kind a field accepts
type FieldKind string

const (
	KindText FieldKind = "text"
	KindBool FieldKind = "bool"
	KindList FieldKind = "list"
)

// OptionSource names the reference table a field draws its choices from
type OptionSource string

const (
	OptionNone             OptionSource = ""
	OptionCategories       OptionSource = "categories"
	OptionTechnologies     OptionSource = "technologies"
	OptionServicePackages  OptionSource = "service_packages"
	OptionCourseCategories OptionSource = "course_categories"
	OptionHardware         OptionSource = "hardware"
	OptionPriorities       OptionSource = "priorities"
	OptionTemplateFeatures OptionSource = "template_features"
)

// Field describes one input of a section
type Field struct {
	Name     string       `json:"name"`
	Label    string       `json:"label"`
	Kind     FieldKind    `json:"kind"`
	Required bool         `json:"required,omitempty"`
	Options  OptionSource `json:"options,omitempty"`
}

// SectionID identifies a wizard section
type SectionID string

const (
	SectionBasic          SectionID = "basic"
	SectionAcademic       SectionID = "academic"
	SectionTechnical      SectionID = "technical"
	SectionFeatures       SectionID = "features"
	SectionBudget         SectionID = "budget"
	SectionServices       SectionID = "services"
	SectionContact        SectionID = "contact"
	SectionReview         SectionID = "review"
	SectionOverview       SectionID = "overview"
	SectionCustomFeatures SectionID = "custom_features"
	SectionCustomTech     SectionID = "custom_technical"
	SectionCustomBudget   SectionID = "custom_budget"
)

// Section is the descriptor of what a step renders
type Section struct {
	ID          SectionID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Fields      []Field   `json:"fields"`
}

func text(name, label string, required bool) Field {
	return Field{Name: name, Label: label, Kind: KindText, Required: required}
}

func flag(name, label string) Field {
	return Field{Name: name, Label: label, Kind: KindBool}
}

func list(name, label string, src OptionSource) Field {
	return Field{Name: name, Label: label, Kind: KindList, Options: src}
}

func choice(name, label string, required bool, src OptionSource) Field {
	return Field{Name: name, Label: label, Kind: KindText, Required: required, Options: src}
}

// New-project wizard sections

var basicSection = Section{
	ID:          SectionBasic,
	Title:       "Basic Information",
	Description: "Tell us about your project",
	Fields: []Field{
		text("projectTitle", "Project Title", true),
		text("projectDescription", "Project Description", true),
		choice("projectCategory", "Project Category", true, OptionCategories),
	},
}

var academicSection = Section{
	ID:          SectionAcademic,
	Title:       "Academic Details",
	Description: "Course and academic requirements",
	Fields: []Field{
		choice("course", "Course/Program", true, OptionCourseCategories),
		text("projectType", "Project Type", true),
		text("academicLevel", "Academic Level", false),
		text("institution", "Institution", false),
		choice("courseCategory", "Course Category", false, OptionCourseCategories),
		flag("isResearchBased", "Research-based project"),
		flag("needsAcademicSupport", "Needs academic support"),
	},
}

var technicalSection = Section{
	ID:          SectionTechnical,
	Title:       "Technical Requirements",
	Description: "Technology stack, database and hosting",
	Fields: []Field{
		choice("selectedTechStack", "Technology Stack", false, OptionTechnologies),
		list("customTechnologies", "Custom Technologies", OptionNone),
		flag("databaseRequired", "Database required"),
		text("databaseType", "Database Type", false),
		flag("hostingRequired", "Hosting required"),
	},
}

var featuresSection = Section{
	ID:          SectionFeatures,
	Title:       "Features & Functionality",
	Description: "Core features, extras and user roles",
	Fields: []Field{
		list("coreFeatures", "Core Features", OptionNone),
		list("additionalFeatures", "Additional Features", OptionNone),
		list("userRoles", "User Roles", OptionNone),
	},
}

var budgetSection = Section{
	ID:          SectionBudget,
	Title:       "Budget & Timeline",
	Description: "Budget range, timeline and priority",
	Fields: []Field{
		text("budgetRange", "Budget Range", true),
		text("timeline", "Timeline", true),
		choice("priority", "Priority", false, OptionPriorities),
	},
}

var servicesSection = Section{
	ID:          SectionServices,
	Title:       "Support Services",
	Description: "Choose additional services and hardware requirements",
	Fields: []Field{
		list("selectedServices", "Support Services", OptionServicePackages),
		list("hardwareNeeds", "Hardware Requirements", OptionHardware),
	},
}

var contactSection = Section{
	ID:          SectionContact,
	Title:       "Contact Details",
	Description: "How we reach you about this request",
	Fields: []Field{
		text("contactEmail", "Email", true),
		text("contactPhone", "Phone", true),
		text("projectUrgency", "Urgency", false),
		text("additionalNotes", "Additional Notes", false),
		list("attachments", "Attachments", OptionNone),
	},
}

var reviewSection = Section{
	ID:          SectionReview,
	Title:       "Review & Submit",
	Description: "Check the summary and estimated cost",
	Fields:      []Field{},
}

// Customization wizard sections

var overviewFields = []Field{
	text("projectTitle", "Custom Project Title", false),
	text("customDescription", "Additional Requirements Description", false),
	flag("keepOriginalFeatures", "Keep original features"),
}

var overviewSection = Section{
	ID:          SectionOverview,
	Title:       "Project Overview",
	Description: "Review the base project and make initial customizations",
	Fields:      overviewFields,
}

var studentOverviewSection = Section{
	ID:          SectionOverview,
	Title:       "Project Overview",
	Description: "Review the base project and align it with your course",
	Fields: append(append([]Field{}, overviewFields...),
		choice("courseAlignment", "Course/Program", false, OptionCourseCategories),
		text("projectType", "Project Type", false),
		list("researchComponents", "Research Components", OptionNone),
		text("academicRequirements", "Academic Requirements", false),
	),
}

var customFeaturesSection = Section{
	ID:          SectionCustomFeatures,
	Title:       "Feature Customizations",
	Description: "Add, remove or modify features",
	Fields: []Field{
		list("additionalFeatures", "Additional Features", OptionNone),
		list("removeFeatures", "Remove Features", OptionTemplateFeatures),
		list("modifyFeatures", "Modify Features", OptionTemplateFeatures),
	},
}

var customTechSection = Section{
	ID:          SectionCustomTech,
	Title:       "Technical Customizations",
	Description: "Technology, database and hosting changes",
	Fields: []Field{
		list("technologyChanges", "Technology Changes", OptionTechnologies),
		text("databaseChanges", "Database Changes", false),
		text("hostingPreferences", "Hosting Preferences", false),
	},
}

var customBudgetSection = Section{
	ID:          SectionCustomBudget,
	Title:       "Budget & Services",
	Description: "Budget, priority, services and contact",
	Fields: []Field{
		text("budgetExpectation", "Budget Expectation", false),
		text("timelinePreference", "Timeline Preference", false),
		choice("priority", "Priority", false, OptionPriorities),
		list("selectedServices", "Support Services", OptionServicePackages),
		list("hardwareNeeds", "Hardware Requirements", OptionHardware),
		text("contactEmail", "Email", true),
		text("contactPhone", "Phone", true),
		text("additionalNotes", "Additional Notes", false),
		text("urgency", "Urgency", false),
	},
}
