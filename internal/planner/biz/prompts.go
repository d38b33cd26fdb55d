package biz

import (
	"strconv"
	"strings"
	"time"

	"github.com/kart-io/tripplanner/internal/model"
)

// planPromptTemplate 规划指令模板，{{...}} 占位符由 PlanInstructions 填充。
const planPromptTemplate = `你是一位頂級的旅遊搜尋規劃師。
你的任務是根據使用者的請求生成一個搜尋計劃。今天是 {{today}}。

你可以使用以下三個工具：
- search_flights(departure_city, destination_city, departure_date, return_date)：搜尋航班。departure_date 與 return_date 必須是 YYYY-MM-DD，return_date 可省略。
- search_hotels(destination, checkin_date, checkout_date, sort_by, sort_order)：搜尋飯店。日期必須是 YYYY-MM-DD；sort_by 為 price、rating 或 reviews；sort_order 為 asc 或 desc。
- search_attractions(destination, interest)：搜尋目的地中與興趣相關的景點（例如「動漫」、「美食」）。

規則：
1. 參數必須完全符合上述簽名與格式。
2. 使用者提到某個月份時，在該月份內產生最多 {{max_ranges}} 個互不重疊、符合要求天數的日期範圍（未指定時為五天四夜）。參考範圍：入住 {{checkin}}，退房 {{checkout}}，共 {{nights}} 晚。
3. 每個日期範圍各產生一個 search_flights 與一個 search_hotels，departure_date 等於 checkin_date，return_date 等於 checkout_date。
4. 每個興趣產生一個 search_attractions。
5. 只輸出純 JSON，不要任何說明文字或 Markdown 標記。

輸出格式：
{"plan": [
  {"name": "search_flights", "arguments": {"departure_city": "台北", "destination_city": "東京", "departure_date": "2025-09-01", "return_date": "2025-09-05"}},
  {"name": "search_hotels", "arguments": {"destination": "東京", "checkin_date": "2025-09-01", "checkout_date": "2025-09-05", "sort_by": "price", "sort_order": "asc"}},
  {"name": "search_attractions", "arguments": {"destination": "東京", "interest": "動漫"}}
]}`

// narrativePrompt 行程叙述指令，费用已由程序计算，模型只负责包装。
const narrativePrompt = `你是一位風趣又貼心的旅遊規劃師。
價格已經由程式計算完成，你的任務是把資料變成一份令人期待的行程，不要重新計算或修改任何金額。

輸入 JSON 包含：
1. user_query：使用者的原始需求。
2. best_option_details：總花費最低的航班與飯店組合。
3. cost_analysis_summary：其他日期範圍的花費，用來說明這個選項有多划算。
4. highlights：依興趣分類的景點列表。

請完成：
1. 以熱情的語氣總結找到的最划算日期、航班與飯店。
2. 依照使用者的興趣，把 highlights 中的景點安排進每日行程，並盡量為特定興趣規劃主題日。
3. 提供貼心提醒。

只輸出純 JSON，格式如下：
{
  "title": "行程標題",
  "summary": "行程總結",
  "chosen_option": {"date_range": "YYYY-MM-DD 至 YYYY-MM-DD", "total_cost": 12345, "flight": "航班資訊", "hotel": "飯店資訊"},
  "itinerary": [
    {"day": 1, "theme": "抵達與探索", "activities": ["..."]}
  ],
  "tips": "貼心提醒"
}`

// PlanInstructions renders the planning instructions for today, using
// window as the reference date range.
func PlanInstructions(today time.Time, window DateWindow, maxRanges int) string {
	return strings.NewReplacer(
		"{{today}}", today.Format(model.DateLayout),
		"{{max_ranges}}", strconv.Itoa(maxRanges),
		"{{checkin}}", window.Checkin.Format(model.DateLayout),
		"{{checkout}}", window.Checkout.Format(model.DateLayout),
		"{{nights}}", strconv.Itoa(window.Nights),
	).Replace(planPromptTemplate)
}

// NarrativeInstructions returns the narration instructions.
func NarrativeInstructions() string {
	return narrativePrompt
}
