package ai

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// maxToolRows caps how many rows a single assistant query may return.
const maxToolRows = 200

// Service holds the Gemini client and the read-only database connection.
// A nil client is allowed: prevention advice then falls back to fixed text
// and the assistant reports itself unavailable.
type Service struct {
	Client *genai.Client
	DB     *sql.DB
	Model  string
}

// NewService initializes the Gemini client.
func NewService(ctx context.Context, apiKey, model string, dbReadOnly *sql.DB) (*Service, error) {
	if apiKey == "" {
		log.Println("WARNING: GEMINI_API_KEY is not set. AI features will use fallbacks.")
		return &Service{DB: dbReadOnly, Model: model}, nil
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Service{Client: client, DB: dbReadOnly, Model: model}, nil
}

func (s *Service) Close() error {
	if s.Client == nil {
		return nil
	}
	return s.Client.Close()
}

func (s *Service) model() *genai.GenerativeModel {
	name := s.Model
	if name == "" {
		name = "gemini-1.5-flash"
	}
	return s.Client.GenerativeModel(name)
}

// Chat answers a user's question, letting the model query the marketplace
// through run_readonly_sql. It returns the answer and the tokens used.
func (s *Service) Chat(ctx context.Context, userMessage, userCategory string) (string, int, error) {
	if s.Client == nil {
		return "", 0, ErrNotConfigured
	}
	model := s.model()

	// 1. --- Tools ---
	model.Tools = []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:        "run_readonly_sql",
			Description: "Executes a READ-ONLY SQL query (SELECT only) to answer questions.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"query": {
						Type:        genai.TypeString,
						Description: "The MySQL SELECT query to execute.",
					},
				},
				Required: []string{"query"},
			},
		}},
	}}

	// 2. --- System instructions ---
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(fmt.Sprintf(`
			You are the AgriTech marketplace assistant. The user is a %s.
			Access: MySQL database (run_readonly_sql).
			Schema: %s
			Rules: SELECT only. Never reveal password hashes or other users' contact details. Be concise.
		`, userCategory, schemaDefinition))},
	}

	// 3. --- Conversation ---
	cs := model.StartChat()
	res, err := cs.SendMessage(ctx, genai.Text(userMessage))
	if err != nil {
		return "", 0, fmt.Errorf("error sending message: %w", err)
	}
	totalTokens := tokens(res)

	for {
		if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
			return "No response.", totalTokens, nil
		}
		part := res.Candidates[0].Content.Parts[0]

		call, ok := part.(genai.FunctionCall)
		if !ok {
			return fmt.Sprintf("%v", part), totalTokens, nil
		}
		if call.Name != "run_readonly_sql" {
			return "", totalTokens, fmt.Errorf("unknown function: %s", call.Name)
		}

		query, ok := call.Args["query"].(string)
		if !ok {
			return "", totalTokens, fmt.Errorf("invalid query argument")
		}
		log.Printf("AI running SQL: %s", query)

		result, sqlErr := s.RunReadOnlyQuery(ctx, query)
		if sqlErr != nil {
			result = fmt.Sprintf("SQL Error: %v", sqlErr)
		}

		res, err = cs.SendMessage(ctx, genai.FunctionResponse{
			Name:     "run_readonly_sql",
			Response: map[string]any{"result": result},
		})
		if err != nil {
			return "", totalTokens, fmt.Errorf("tool response error: %w", err)
		}
		// UsageMetadata is cumulative for the chat.
		if n := tokens(res); n > 0 {
			totalTokens = n
		}
	}
}

func tokens(res *genai.GenerateContentResponse) int {
	if res == nil || res.UsageMetadata == nil {
		return 0
	}
	return int(res.UsageMetadata.TotalTokenCount)
}

// RunReadOnlyQuery executes a single SELECT and returns the rows as JSON.
func (s *Service) RunReadOnlyQuery(ctx context.Context, query string) (string, error) {
	if err := checkReadOnly(query); err != nil {
		return "", err
	}
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return "", err
	}
	tableData := []map[string]any{}
	for rows.Next() && len(tableData) < maxToolRows {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range columns {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", err
		}
		entry := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				entry[col] = string(b)
			} else {
				entry[col] = values[i]
			}
		}
		tableData = append(tableData, entry)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	out, err := json.Marshal(tableData)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

var forbiddenSQL = []string{"UPDATE", "DELETE", "DROP", "INSERT", "ALTER", "CREATE", "TRUNCATE", "REPLACE", "GRANT"}

func checkReadOnly(query string) error {
	normalized := strings.ToUpper(strings.TrimSpace(query))
	if !strings.HasPrefix(normalized, "SELECT") && !strings.HasPrefix(normalized, "WITH") {
		return fmt.Errorf("security violation: only SELECT queries are allowed")
	}
	if strings.Contains(strings.TrimSuffix(normalized, ";"), ";") {
		return fmt.Errorf("security violation: multiple statements are not allowed")
	}
	if strings.Contains(normalized, "PASSWORD_HASH") {
		return fmt.Errorf("security violation: password hashes are not readable")
	}
	for _, word := range strings.FieldsFunc(normalized, func(r rune) bool {
		return !(r == '_' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	}) {
		for _, bad := range forbiddenSQL {
			if word == bad {
				return fmt.Errorf("security violation: modify operations are not allowed")
			}
		}
	}
	return nil
}

// schemaTable is one table as described to the assistant. A column may
// carry its allowed values in brackets after the name.
type schemaTable struct {
	Name    string
	Columns []string
}

// schemaTables mirrors the migrations, minus users.password_hash.
var schemaTables = []schemaTable{
	{"users", []string{"id", "email", "first_name", "last_name", "mobile",
		"category [Farmer, Investor, Buyer, Expert]", "created_at", "updated_at"}},
	{"farmer_details", []string{"user_id", "address", "farm_size", "main_crops", "experience", "photo_url", "updated_at"}},
	{"buyer_profiles", []string{"user_id", "full_name", "phone_number", "location", "updated_at"}},
	{"products", []string{"id", "seller_id", "name", "description",
		"category [Seeds, Fertilizers, Pesticides, Tools]", "quantity", "unit [kg, g, L, pcs]",
		"price", "image_url", "created_at", "updated_at"}},
	{"orders", []string{"id", "buyer_id", "total_price", "delivery_fee",
		"delivery_method [self_pickup, parcel]", "payment_method [pay_on_delivery, upi]",
		"full_name", "phone_number", "address", "city", "state", "pin_code",
		"status [Pending, Ready for Pickup, Packed, Shipped, Delivered, Cancelled]",
		"pickup_time", "tracking_link", "created_at", "updated_at"}},
	{"order_items", []string{"order_id", "line_no", "product_id", "name", "quantity", "price", "seller_id"}},
	{"wanted_products", []string{"id", "user_id", "name",
		"category [Seeds, Fertilizers, Pesticides, Tools, Vegetables, Fruits, Paddy, Crops]",
		"quantity", "unit", "notes", "delivery_location", "required_date_time", "created_at"}},
	{"notifications", []string{"id", "user_id", "message", "link", "is_read", "created_at"}},
	{"disease_scans", []string{"id", "user_id", "results", "created_at"}},
	{"feedback", []string{"id", "user_id", "rating", "comment", "created_at"}},
}

func describeSchema(tables []schemaTable) string {
	var b strings.Builder
	b.WriteString("\n")
	for _, t := range tables {
		fmt.Fprintf(&b, "\t- %s (%s)\n", t.Name, strings.Join(t.Columns, ", "))
	}
	return b.String()
}

var schemaDefinition = describeSchema(schemaTables)
