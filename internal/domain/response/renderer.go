package response

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/abbis/abbis-api/internal/domain/request"
)

// RenderOptions tweaks the rendered email without touching stored fields
type RenderOptions struct {
	// Message is an optional extra paragraph below the intro
	Message string
}

// emailTemplate renders a response as an HTML email body
const emailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body {
            margin: 0;
            padding: 0;
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif;
            background-color: #f4f4f4;
            color: #1a1a1a;
        }
        .container {
            max-width: 640px;
            margin: 0 auto;
            padding: 32px 20px;
        }
        .card {
            background: #ffffff;
            border-radius: 8px;
            padding: 28px;
            border: 1px solid #e0e0e0;
        }
        h2 {
            font-size: 20px;
            margin: 0 0 16px;
        }
        p {
            font-size: 15px;
            line-height: 1.6;
            margin: 0 0 14px;
        }
        table {
            width: 100%;
            border-collapse: collapse;
            margin: 16px 0;
        }
        th, td {
            text-align: left;
            padding: 8px 10px;
            border-bottom: 1px solid #e8e8e8;
            font-size: 14px;
        }
        th {
            background: #f0f4f8;
        }
        td.amount, th.amount {
            text-align: right;
        }
        .totals td {
            border-bottom: none;
            padding: 4px 10px;
        }
        .totals .grand td {
            font-weight: 700;
            border-top: 2px solid #1a1a1a;
        }
        .terms {
            margin-top: 20px;
            padding: 14px;
            background: #fafafa;
            border-radius: 6px;
            font-size: 13px;
            color: #555555;
        }
        .footer {
            text-align: center;
            margin-top: 24px;
            color: #999999;
            font-size: 12px;
        }
    </style>
</head>
<body>
<div class="container">
    <div class="card">
        <h2>{{.Code}}</h2>
        <p>Dear {{.ClientName}},</p>
        {{if .Intro}}<p>{{.Intro}}</p>{{end}}
        {{if .Message}}<p>{{.Message}}</p>{{end}}
        <table>
            <tr>
                <th>Item</th>
                <th>Description</th>
                <th class="amount">Qty</th>
                <th class="amount">Unit price</th>
                <th class="amount">Line total</th>
            </tr>
            {{range .Items}}
            <tr>
                <td>{{.Name}}</td>
                <td>{{.Description}}</td>
                <td class="amount">{{.Quantity}}</td>
                <td class="amount">{{.UnitPrice}}</td>
                <td class="amount">{{.LineTotal}}</td>
            </tr>
            {{else}}
            <tr>
                <td colspan="5">No items have been added to this {{.DocName}} yet.</td>
            </tr>
            {{end}}
        </table>
        <table class="totals">
            <tr><td>Subtotal</td><td class="amount">{{.Currency}} {{.Subtotal}}</td></tr>
            <tr><td>Discount</td><td class="amount">{{.Currency}} {{.DiscountTotal}}</td></tr>
            <tr><td>Tax</td><td class="amount">{{.Currency}} {{.TaxTotal}}</td></tr>
            <tr class="grand"><td>Total</td><td class="amount">{{.Currency}} {{.Total}}</td></tr>
        </table>
        {{if .Terms}}<div class="terms">{{.Terms}}</div>{{end}}
    </div>
    <div class="footer">This document was generated by ABBIS.</div>
</div>
</body>
</html>
`

var emailTmpl = template.Must(template.New("response_email").Parse(emailTemplate))

type emailItemView struct {
	Name        string
	Description string
	Quantity    string
	UnitPrice   string
	LineTotal   string
}

type emailView struct {
	Code          string
	DocName       string
	ClientName    string
	Intro         string
	Message       string
	Terms         string
	Currency      string
	Items         []emailItemView
	Subtotal      string
	DiscountTotal string
	TaxTotal      string
	Total         string
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// RenderEmail renders the response as an HTML email body. Pure function,
// no side effects.
func RenderEmail(resp *Response, items []*Item, req *request.Request, opts RenderOptions) (string, error) {
	view := emailView{
		Code:          resp.Code,
		DocName:       "quotation",
		ClientName:    req.ClientName,
		Message:       opts.Message,
		Currency:      resp.Currency,
		Subtotal:      money(resp.Subtotal),
		DiscountTotal: money(resp.DiscountTotal),
		TaxTotal:      money(resp.TaxTotal),
		Total:         money(resp.Total),
	}
	if resp.RequestType == request.TypeRig {
		view.DocName = "rig deployment proposal"
	}
	if resp.Intro.Valid {
		view.Intro = resp.Intro.String
	}
	if resp.Terms.Valid {
		view.Terms = resp.Terms.String
	}

	for _, it := range items {
		iv := emailItemView{
			Name:      it.Name,
			Quantity:  fmt.Sprintf("%g", it.Quantity),
			UnitPrice: money(it.UnitPrice),
			LineTotal: money(it.LineTotal),
		}
		if it.Description.Valid {
			iv.Description = it.Description.String
		}
		view.Items = append(view.Items, iv)
	}

	var buf bytes.Buffer
	if err := emailTmpl.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}
