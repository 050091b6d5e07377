package sheets

import (
	"context"
	"encoding/json"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
	"google.golang.org/api/option"
)

var _ = Describe("GoogleValues", func() {
	var (
		server *ghttp.Server
		values *GoogleValues
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		server = ghttp.NewServer()
		var err error
		values, err = NewGoogleValues(ctx, "sheet-id",
			option.WithEndpoint(server.URL()+"/"),
			option.WithoutAuthentication(),
		)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("Get", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodGet, "/v4/spreadsheets/sheet-id/values/JANEIRO!M22:O"),
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]interface{}{
					"range":          "JANEIRO!M22:O1000",
					"majorDimension": "ROWS",
					"values":         [][]string{{"50,00", "10/03/2024"}, {}, {"", "", "x"}},
				}),
			))
		})

		It("returns the rows", func() {
			rows, err := values.Get(ctx, "JANEIRO!M22:O")
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(3))
			Expect(rows[0]).To(Equal([]interface{}{"50,00", "10/03/2024"}))
		})
	})

	Describe("Update", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPut, "/v4/spreadsheets/sheet-id/values/JANEIRO!M30"),
				func(w http.ResponseWriter, r *http.Request) {
					Expect(r.URL.Query().Get("valueInputOption")).To(Equal("USER_ENTERED"))
					var body struct {
						Values [][]interface{} `json:"values"`
					}
					Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
					Expect(body.Values).To(Equal([][]interface{}{{"50,00"}}))
				},
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]interface{}{
					"spreadsheetId": "sheet-id",
					"updatedRange":  "JANEIRO!M30",
					"updatedCells":  1,
				}),
			))
		})

		It("sends the values as user input", func() {
			Expect(values.Update(ctx, "JANEIRO!M30", [][]interface{}{{"50,00"}})).To(Succeed())
			Expect(server.ReceivedRequests()).To(HaveLen(1))
		})
	})

	When("the API returns an error", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusForbidden, map[string]interface{}{
				"error": map[string]interface{}{"code": 403, "message": "The caller does not have permission"},
			}))
		})

		It("wraps it", func() {
			_, err := values.Get(ctx, "JANEIRO!M22:O")
			Expect(err).To(MatchError(ContainSubstring("reading JANEIRO!M22:O")))
		})
	})

	It("requires a spreadsheet id", func() {
		_, err := NewGoogleValues(ctx, "", option.WithoutAuthentication())
		Expect(err).To(HaveOccurred())
	})
})
