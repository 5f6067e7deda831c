package mcptools

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions for the glucorisk MCP server.
// Descriptions are what the LLM reads to decide which tool to use.

var ToolScorePatient = mcp.NewTool("score_patient",
	mcp.WithDescription(
		"Score a patient's diabetes risk from eight clinical measurements. "+
			"Returns the risk tier (Low/Moderate/High Risk), probability percentage, and a care suggestion. "+
			"Every successful scoring is recorded in the assessment history."),
	mcp.WithString("name",
		mcp.Description("Patient name (optional, stored with the record)")),
	mcp.WithString("patient_id",
		mcp.Description("Patient identifier (optional, stored with the record)")),
	mcp.WithNumber("pregnancies",
		mcp.Required(),
		mcp.Description("Number of pregnancies")),
	mcp.WithNumber("glucose",
		mcp.Required(),
		mcp.Description("Plasma glucose concentration (mg/dL)")),
	mcp.WithNumber("bloodpressure",
		mcp.Required(),
		mcp.Description("Diastolic blood pressure (mm Hg)")),
	mcp.WithNumber("skinthickness",
		mcp.Required(),
		mcp.Description("Triceps skin fold thickness (mm)")),
	mcp.WithNumber("insulin",
		mcp.Required(),
		mcp.Description("2-hour serum insulin (mu U/ml)")),
	mcp.WithNumber("bmi",
		mcp.Required(),
		mcp.Description("Body mass index (weight in kg / height in m squared)")),
	mcp.WithNumber("dpf",
		mcp.Required(),
		mcp.Description("Diabetes pedigree function score")),
	mcp.WithNumber("age",
		mcp.Required(),
		mcp.Description("Age in years")),
)

var ToolGetDashboard = mcp.NewTool("get_dashboard",
	mcp.WithDescription(
		"Get aggregate statistics over all recorded assessments: total count, "+
			"average risk probability, number of high-risk patients, and the full record list."),
)

var ToolGetRecord = mcp.NewTool("get_record",
	mcp.WithDescription(
		"Fetch a single past assessment by its position in the history (0-based). "+
			"Returns the patient details, feature values, probability, and risk tier."),
	mcp.WithNumber("index",
		mcp.Required(),
		mcp.Description("0-based index of the record in the assessment history")),
)
