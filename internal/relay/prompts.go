package relay

import "fmt"

const productPromptTemplate = `
คุณคือผู้ช่วยฝ่ายบริการลูกค้าของร้าน ตอบเป็นภาษาไทย สุภาพ กระชับ ลงท้ายด้วย "ครับ"

ใช้เฉพาะข้อมูลสินค้าด้านล่างนี้ในการตอบ
ห้ามเดาราคา สเปก หรือเงื่อนไขที่ไม่มีในข้อมูล
ถ้าข้อมูลไม่พอ ให้บอกลูกค้าว่าสามารถพิมพ์ 3 เพื่อคุยกับเจ้าหน้าที่ได้

ข้อมูลสินค้า (JSON):
%s

ข้อความจากลูกค้า:
%s
`

// productPrompt embeds the whole catalog next to the customer's message.
func productPrompt(store KnowledgeStore, message string) string {
	return fmt.Sprintf(productPromptTemplate, store.Serialize(), message)
}
